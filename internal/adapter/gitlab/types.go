package gitlab

// apiMergeRequest is the subset of the merge request payload we read.
type apiMergeRequest struct {
	IID          int         `json:"iid"`
	Title        string      `json:"title"`
	State        string      `json:"state"`
	SourceBranch string      `json:"source_branch"`
	TargetBranch string      `json:"target_branch"`
	WebURL       string      `json:"web_url"`
	Author       apiAuthor   `json:"author"`
	DiffRefs     apiDiffRefs `json:"diff_refs"`
}

type apiAuthor struct {
	Name     string `json:"name"`
	Username string `json:"username"`
}

// apiDiffRefs identifies the commits a diff discussion is anchored to.
type apiDiffRefs struct {
	BaseSHA  string `json:"base_sha"`
	StartSHA string `json:"start_sha"`
	HeadSHA  string `json:"head_sha"`
}

// apiChanges is the response of the merge request changes endpoint.
type apiChanges struct {
	DiffRefs apiDiffRefs `json:"diff_refs"`
	Changes  []apiChange `json:"changes"`
}

type apiChange struct {
	OldPath     string `json:"old_path"`
	NewPath     string `json:"new_path"`
	NewFile     bool   `json:"new_file"`
	DeletedFile bool   `json:"deleted_file"`
	RenamedFile bool   `json:"renamed_file"`
	Diff        string `json:"diff"`
}

type noteRequest struct {
	Body string `json:"body"`
}

type discussionRequest struct {
	Body     string      `json:"body"`
	Position apiPosition `json:"position"`
}

// apiPosition anchors a discussion to one side of the diff. New lines use
// new_line, deleted lines use old_line; GitLab rejects positions carrying
// the wrong side.
type apiPosition struct {
	BaseSHA      string `json:"base_sha"`
	StartSHA     string `json:"start_sha"`
	HeadSHA      string `json:"head_sha"`
	PositionType string `json:"position_type"`
	NewPath      string `json:"new_path,omitempty"`
	OldPath      string `json:"old_path,omitempty"`
	NewLine      int    `json:"new_line,omitempty"`
	OldLine      int    `json:"old_line,omitempty"`
}
