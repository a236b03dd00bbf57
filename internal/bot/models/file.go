// Package models defines the persisted record types shared by the storage
// backends and the service layer.
package models

// MediaKind is the enumerated media category of an archived artifact.
type MediaKind string

const (
	KindDocument MediaKind = "document"
	KindVideo    MediaKind = "video"
	KindPhoto    MediaKind = "photo"
	KindAudio    MediaKind = "audio"
	KindVoice    MediaKind = "voice"
)

// ArchiveLocation is the (channel, message) address where an ingested
// artifact is durably stored. It is the artifact's only durable address.
type ArchiveLocation struct {
	ChatID    int64 `bson:"db_chat_id"`
	MessageID int   `bson:"db_message_id"`
}

// FileRecord identifies one stored artifact. Created once at ingest time and
// mutated only via full upsert by FileID.
type FileRecord struct {
	FileID  string          `bson:"file_id"`
	Archive ArchiveLocation `bson:",inline"`
	Kind    MediaKind       `bson:"kind"`
	Caption string          `bson:"caption,omitempty"`
}
