package output

// ScriptRepository reads and replaces script files.
// Save keeps the permissions of the file it replaces so an executable
// script stays executable after a rewrite.
type ScriptRepository interface {
	Load(path string) (string, error)
	Save(path, body string) error
	// SaveCopy writes body to dst using the permissions of src
	SaveCopy(src, dst, body string) error
}
