// pkg/meta/config.go

package meta

// DefaultChunkSize is the default number of rows and columns of a chunk.
const DefaultChunkSize = 512

// Format is the setting of a grid store, kept as setting.json at its root.
type Format struct {
	Name          string
	UUID          string
	Storage       string
	Bucket        string
	AccessKey     string
	SecretKey     string `json:",omitempty"`
	Compression   string
	EncryptKey    string `json:",omitempty"`
	UploadLimit   int64  // Mbps
	DownloadLimit int64  // Mbps
	ChunkRows     int32
	ChunkCols     int32
}

func (f *Format) RemoveSecret() {
	if f.SecretKey != "" {
		f.SecretKey = "removed"
	}
	if f.EncryptKey != "" {
		f.EncryptKey = "removed"
	}
}

// ChunkSize returns the chunk shape new grids get, falling back to the default.
func (f *Format) ChunkSize() (int32, int32) {
	rows, cols := f.ChunkRows, f.ChunkCols
	if rows <= 0 {
		rows = DefaultChunkSize
	}
	if cols <= 0 {
		cols = DefaultChunkSize
	}
	return rows, cols
}
