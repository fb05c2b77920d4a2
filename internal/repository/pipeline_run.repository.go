package repository

import (
	"database/sql"
	"fmt"
	"time"

	"factorportfolio/internal/db/models/postgres/public/model"
	"factorportfolio/internal/db/models/postgres/public/table"

	"github.com/go-jet/jet/v2/postgres"
	"github.com/go-jet/jet/v2/qrm"
	"github.com/google/uuid"
)

type PipelineRunRepository interface {
	Add(tx *sql.Tx, pr model.PipelineRun) (*model.PipelineRun, error)
	Get(id uuid.UUID) (*model.PipelineRun, error)
	List(limit int64) ([]model.PipelineRun, error)
}

type pipelineRunRepositoryHandler struct {
	Db *sql.DB
}

func NewPipelineRunRepository(db *sql.DB) PipelineRunRepository {
	return pipelineRunRepositoryHandler{Db: db}
}

func addPipelineRunQuery(pr model.PipelineRun) postgres.InsertStatement {
	return table.PipelineRun.
		INSERT(table.PipelineRun.AllColumns).
		MODEL(pr).
		RETURNING(table.PipelineRun.AllColumns)
}

func (h pipelineRunRepositoryHandler) Add(tx *sql.Tx, pr model.PipelineRun) (*model.PipelineRun, error) {
	if pr.PipelineRunID == uuid.Nil {
		pr.PipelineRunID = uuid.New()
	}
	pr.CreatedAt = time.Now().UTC()

	var db qrm.Queryable = h.Db
	if tx != nil {
		db = tx
	}

	out := model.PipelineRun{}
	err := addPipelineRunQuery(pr).Query(db, &out)
	if err != nil {
		return nil, fmt.Errorf("failed to insert pipeline run: %w", err)
	}

	return &out, nil
}

func (h pipelineRunRepositoryHandler) Get(id uuid.UUID) (*model.PipelineRun, error) {
	query := table.PipelineRun.
		SELECT(table.PipelineRun.AllColumns).
		WHERE(table.PipelineRun.PipelineRunID.EQ(postgres.UUID(id)))

	out := model.PipelineRun{}
	err := query.Query(h.Db, &out)
	if err != nil {
		return nil, fmt.Errorf("failed to get pipeline run %s: %w", id.String(), err)
	}

	return &out, nil
}

func listPipelineRunsQuery(limit int64) postgres.SelectStatement {
	return table.PipelineRun.
		SELECT(table.PipelineRun.AllColumns).
		ORDER_BY(table.PipelineRun.CreatedAt.DESC()).
		LIMIT(limit)
}

func (h pipelineRunRepositoryHandler) List(limit int64) ([]model.PipelineRun, error) {
	out := []model.PipelineRun{}
	err := listPipelineRunsQuery(limit).Query(h.Db, &out)
	if err != nil {
		return nil, fmt.Errorf("failed to list pipeline runs: %w", err)
	}

	return out, nil
}
