package models

// StatusUpdate is the body of a complaint status change.
type StatusUpdate struct {
	Status    string `json:"status"`
	UpdatedBy string `json:"updatedBy"`
}

// CommentInput is the body of a new comment.
type CommentInput struct {
	Content string `json:"content"`
}

// EntityRequest is the body of an entity detection request.
type EntityRequest struct {
	Text string `json:"text"`
}

// PointsAward is the body of a points award.
type PointsAward struct {
	UserID string `json:"userId"`
	Points int    `json:"points"`
	Reason string `json:"reason"`
}

// UnreadCount is returned by the unread notification counter.
type UnreadCount struct {
	Count int `json:"count"`
}
