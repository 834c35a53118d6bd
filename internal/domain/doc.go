// Package domain models the readings of the environmental monitoring stations
// that publish ".lsi" instrument files.
//
// # Data Source
//
// Each station's logger writes one file per reading interval to its own
// directory on the FTP server (Fazenda → "Bom_Retiro", Coca Cola →
// "Porto_Real"). Only the newest file of each directory is of interest.
//
// # File Conventions
//
// Filename:
//
//	"DD_MM_YYYY_HH_MM" in the station's local time, e.g. "17_07_2025_14_11..lsi"
//	is 17 July 2025, 14:11. The doubled dot before the extension is how the
//	logger names its files and is ignored. A name that does not start with the
//	five numeric components has an unknown timestamp; it is never guessed.
//
// Record:
//
//	<preamble> AM,<value>,<code>,<value>,<code>,...
//	The preamble ends at the first "AM," or "PM," session marker. Position
//	decides, not the marker kind: a later "AM," never overrides an earlier
//	"PM,". After it come alternating value and quality-code tokens; only the
//	values are kept. Empty tokens (doubled or trailing commas) are dropped
//	before pairing, so they do not shift alignment. The first 13 values map to
//	the station's [FieldOrder]; extras are ignored, fewer is a parse failure.
//
// Values:
//
//	Decimal numbers. A token that does not convert is stored as [Unparseable],
//	which is distinct from zero and always classifies as [Indeterminate].
//
// # Thresholds
//
// Each station and parameter has a [ThresholdPair]. A value is an [Alert] when
// strictly below min or strictly above max; a bound at exactly min or max is
// [Normal]. A missing bound is unbounded. The built-in table is
// [DefaultThresholds].
//
// # Freshness
//
// A file is [Fresh] when its filename timestamp is at most [StaleAfter] (30
// minutes) older than the current instant. Stale and unknown files are reported
// without parsing so outdated readings are never displayed.
package domain
