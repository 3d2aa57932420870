package in

import (
	"context"

	"studytrack/internal/modules/report/dto"
	reportin "studytrack/internal/modules/report/port/in"
)

type CLIHandler struct {
	usecase reportin.Usecase
}

func NewCLIHandler(usecase reportin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) ExportMarkdown(ctx context.Context) (dto.ExportMarkdownOutput, error) {
	return h.usecase.ExportMarkdown(ctx)
}
