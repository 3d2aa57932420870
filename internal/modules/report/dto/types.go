package dto

type ExportMarkdownOutput struct {
	Dir   string
	Paths []string
}
