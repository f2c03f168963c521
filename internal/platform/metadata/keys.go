package metadata

// --- SQLite Keys ---
// These keys are used for the 'key' column in the 'metadata' table.
const (
	// LastSnapshotAtKey stores the RFC 3339 time of the last successful snapshot.
	LastSnapshotAtKey = "last_snapshot_at"

	// LastSnapshotArtifactKey stores where the last snapshot was written
	// (a file path pair or the database backend name).
	LastSnapshotArtifactKey = "last_snapshot_artifact"

	// SnapshotReviewCountKey stores the number of reviews in the last snapshot.
	SnapshotReviewCountKey = "snapshot_review_count"
)
