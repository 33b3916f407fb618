package comment

const maxCommentLength = 200

type CreateCommentDTO struct {
	PostID  string `json:"postId"`
	Content string `json:"content"`
}

// Counts is the payload of GET /comment/count.
type Counts struct {
	TotalComments     int64 `json:"totalComments"`
	LastMonthComments int64 `json:"lastMonthComments"`
}
