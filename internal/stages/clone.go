package stages

import (
	"context"
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/autodoc/internal/config"
	"github.com/fyrsmithlabs/autodoc/internal/gitrepo"
	"github.com/fyrsmithlabs/autodoc/internal/pipeline"
)

// CloneStage clones the target repository and records its metadata.
// Any clone failure is fatal: nothing downstream can run without a
// working tree.
type CloneStage struct {
	cloner Cloner
	pat    config.Secret
}

// NewCloneStage creates the clone stage.
func NewCloneStage(cloner Cloner, pat config.Secret) *CloneStage {
	return &CloneStage{cloner: cloner, pat: pat}
}

func (s *CloneStage) Name() string { return pipeline.StageClone }

func (s *CloneStage) Produces() []pipeline.Field {
	return []pipeline.Field{pipeline.FieldLocalPath, pipeline.FieldRepoMetadata}
}

func (s *CloneStage) Precondition(st *pipeline.State) error {
	if st.RepoURL == "" {
		return errors.New("no repository URL")
	}
	return nil
}

func (s *CloneStage) Run(ctx context.Context, st *pipeline.State) pipeline.Outcome {
	result, err := s.cloner.Clone(ctx, st.RepoURL, st.Branch, s.pat.Value())
	if err != nil {
		kind := pipeline.ErrorNetwork
		if errors.Is(err, gitrepo.ErrAuth) {
			kind = pipeline.ErrorAuth
		}
		return pipeline.Abort(pipeline.NewStageError(s.Name(), kind, err))
	}

	update := pipeline.Update{
		LocalPath:    result.LocalPath,
		RepoMetadata: result.Metadata,
	}
	if len(result.Warnings) > 0 {
		// Missing optional metadata degrades the stage: the clone itself
		// succeeded, but the gaps belong in the run's error log.
		errs := make([]pipeline.StageError, 0, len(result.Warnings))
		for _, warning := range result.Warnings {
			errs = append(errs, pipeline.NewStageError(s.Name(), pipeline.ErrorInternal,
				fmt.Errorf("metadata: %s", warning)))
		}
		return pipeline.Degrade(update, errs...)
	}
	return pipeline.Succeed(update)
}
