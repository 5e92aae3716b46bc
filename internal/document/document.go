package document

// Block is a fragment of page text with layout attributes, used by the
// markup renderer to reconstruct headings and emphasis.
type Block struct {
	Text       string
	BBox       [4]float64 // x0, top, x1, bottom
	FontSize   float64
	FontWeight string // "bold" or "normal"
}

// Page is a single page extracted from a source document. Formats without
// fixed pages (docx, txt, html) produce one flowing page.
type Page struct {
	Number int    // 1-indexed
	Text   string // raw page text
	Blocks []Block
}

// Metadata carries the structural context of a chunk.
type Metadata struct {
	Title           string   `json:"title,omitempty"`
	Level           string   `json:"level"`
	SourceDocument  string   `json:"source_document"`
	Pages           []int    `json:"pages"`
	ParentHierarchy []string `json:"parent_hierarchy"`
}

// Chunk is the final, user-facing output: one semantic unit of the
// document with its metadata.
type Chunk struct {
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}
