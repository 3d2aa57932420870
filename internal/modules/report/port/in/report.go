package in

import (
	"context"

	"studytrack/internal/modules/report/dto"
)

type Usecase interface {
	ExportMarkdown(ctx context.Context) (dto.ExportMarkdownOutput, error)
}
