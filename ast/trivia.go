package ast

// CommentLine and CommentBlock carry the trivia model of spec §3.2/§4.4:
// every comment records the whitespace immediately before it and the last
// significant character (if any) preceding that whitespace. The trailing
// fields are filled only on the last comment before the next code token or
// end of input; when comments follow one another, the whitespace between
// them is recorded once, as the later comment's LeadingWS. IsTopComment
// marks a comment that precedes all code in the file, and IsBottomComment
// marks the file's last comment - information a formatter needs to decide
// whether a comment is "attached" to the statement above or below it
// without re-scanning the raw source.
type CommentLine struct {
	Span
	Text          string `json:"text"`
	LeadingWS     string `json:"leadingWS"`
	TrailingWS    string `json:"trailingWS"`
	LeadingChar   string `json:"leadingChar,omitempty"`
	TrailingChar  string `json:"trailingChar,omitempty"`
	IsTopComment  bool   `json:"isTopComment,omitempty"`
	IsBottomComment bool `json:"isBottomComment,omitempty"`
}

func (*CommentLine) Kind() Kind { return KindCommentLine }

type CommentBlock struct {
	Span
	Text            string `json:"text"`
	LineCount       int    `json:"lineCount"`
	LeadingWS       string `json:"leadingWS"`
	TrailingWS      string `json:"trailingWS"`
	LeadingChar     string `json:"leadingChar,omitempty"`
	TrailingChar    string `json:"trailingChar,omitempty"`
	IsTopComment    bool   `json:"isTopComment,omitempty"`
	IsBottomComment bool   `json:"isBottomComment,omitempty"`
}

func (*CommentBlock) Kind() Kind { return KindCommentBlock }

// Whitespace holds raw hidden-channel trivia verbatim (spec §4.4). The
// facade collects it on every parse but hands it out only through
// ParseWithTrivia; ordinary comment-aware consumers never see it, since
// CommentLine/CommentBlock already carry their own whitespace slices.
type Whitespace struct {
	Span
	Text      string `json:"text"`
	IsNewline bool   `json:"isNewline,omitempty"`
}

func (*Whitespace) Kind() Kind { return KindWhitespace }
