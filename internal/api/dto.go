package api

// Request bodies sent to the backend. The wire contract is snake_case;
// these are the only places field names cross the boundary outbound.

type issueCreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	AuthorID    string `json:"author_id"`
}

// fieldUpdateRequest is the backend's per-field PATCH shape, used for both
// issues and users.
type fieldUpdateRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type commentCreateRequest struct {
	Text     string `json:"text"`
	AuthorID string `json:"author_id"`
}

type commentUpdateRequest struct {
	Text string `json:"text"`
}

type tagRequest struct {
	Tag   string `json:"tag"`
	Color string `json:"color"`
}

type assignRequest struct {
	IssueID string `json:"issue_id"`
}

type userCreateRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type databaseCreateRequest struct {
	Name string `json:"name"`
}

type databaseRenameRequest struct {
	Name string `json:"name"`
}
