package domain

// RawFile is the latest file retrieved for a station. Name is the base name as
// listed by the source; Data is the file's full text.
type RawFile struct {
	Name string
	Data []byte
}
