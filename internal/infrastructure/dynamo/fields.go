package dynamo

// DynamoDB attribute names used in update and condition expressions.
const (
	fieldSessionID = "session_id"
	fieldBusyOwner = "busy_owner"
	fieldBusyUntil = "busy_until"
	fieldExpiresAt = "expires_at"
	fieldUpdatedAt = "updated_at"
)
