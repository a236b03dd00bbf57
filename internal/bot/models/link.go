package models

// LinkRecord binds a shareable short code to exactly one FileRecord and,
// after first successful use, to exactly one claiming user.
//
// OwnerUserID is nil until the first claim and immutable afterwards.
// Re-saving a link may repoint FileID but never touches ownership.
type LinkRecord struct {
	Code        string `bson:"code"`
	FileID      string `bson:"file_id"`
	OwnerUserID *int64 `bson:"owner_user_id"`
}
