package out

import (
	"context"

	"studytrack/internal/modules/report/domain"
)

type NoteStore interface {
	Dir() string
	Save(ctx context.Context, note domain.SubjectNote) (string, error)
}
