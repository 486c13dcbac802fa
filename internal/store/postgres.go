// Package store persists questions, answers, comments and tags.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
)

// Postgres is the gorm-backed document store.
type Postgres struct {
	db *gorm.DB
}

// NewPostgres wraps an open gorm connection.
func NewPostgres(db *gorm.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates or updates the tables the store needs.
func (p *Postgres) Migrate(ctx context.Context) error {
	err := p.db.WithContext(ctx).AutoMigrate(
		&models.Tag{},
		&models.Question{},
		&models.Answer{},
		&models.Comment{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Ping checks the underlying connection.
func (p *Postgres) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func ordered(column string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(column)
	}
}

func populated(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Tags", ordered("name")).
		Preload("Answers", ordered("created_at, id")).
		Preload("Answers.Comments", ordered("created_at, id")).
		Preload("Comments", ordered("created_at, id"))
}

func notFound(kind, id string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", kind, id, models.ErrNotFound)
	}
	return err
}

// checkID rejects ids that cannot be a uuid; the columns are typed uuid and
// PostgreSQL would otherwise fail the whole statement.
func checkID(kind, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%s %s: %w", kind, id, models.ErrNotFound)
	}
	return nil
}

func (p *Postgres) loadQuestion(tx *gorm.DB, id string) (*models.Question, error) {
	if err := checkID("question", id); err != nil {
		return nil, err
	}
	var q models.Question
	if err := populated(tx).First(&q, "id = ?", id).Error; err != nil {
		return nil, notFound("question", id, err)
	}
	normalizeQuestion(&q)
	return &q, nil
}

// CreateQuestion stores q, creating any tags that do not exist yet.
func (p *Postgres) CreateQuestion(ctx context.Context, q *models.Question) (*models.Question, error) {
	var created *models.Question
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags := make([]models.Tag, 0, len(q.Tags))
		for _, t := range q.Tags {
			tag := models.Tag{}
			err := tx.Where(models.Tag{Name: t.Name}).
				Attrs(models.Tag{ID: uuid.NewString(), Description: t.Description}).
				FirstOrCreate(&tag).Error
			if err != nil {
				return fmt.Errorf("upsert tag %q: %w", t.Name, err)
			}
			tags = append(tags, tag)
		}

		row := models.Question{
			ID:          uuid.NewString(),
			Title:       q.Title,
			Text:        q.Text,
			Tags:        tags,
			AskedBy:     q.AskedBy,
			AskDateTime: q.AskDateTime,
			UpVotes:     pq.StringArray{},
			DownVotes:   pq.StringArray{},
		}
		if err := tx.Omit("Tags.*").Create(&row).Error; err != nil {
			return fmt.Errorf("create question: %w", err)
		}

		var err error
		created, err = p.loadQuestion(tx, row.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetQuestion returns the populated question aggregate.
func (p *Postgres) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	return p.loadQuestion(p.db.WithContext(ctx), id)
}

// IncrementViews bumps the view counter and returns the populated question.
func (p *Postgres) IncrementViews(ctx context.Context, id string) (*models.Question, error) {
	if err := checkID("question", id); err != nil {
		return nil, err
	}
	var q *models.Question
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Question{}).
			Where("id = ?", id).
			UpdateColumn("views", gorm.Expr("views + 1"))
		if res.Error != nil {
			return fmt.Errorf("increment views: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("question %s: %w", id, models.ErrNotFound)
		}

		var err error
		q, err = p.loadQuestion(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

// ListQuestions returns every question, newest first.
func (p *Postgres) ListQuestions(ctx context.Context) ([]*models.Question, error) {
	var qs []*models.Question
	if err := populated(p.db.WithContext(ctx)).Order("ask_date_time desc").Find(&qs).Error; err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	for _, q := range qs {
		normalizeQuestion(q)
	}
	return qs, nil
}

// AddAnswer appends a to question qid.
func (p *Postgres) AddAnswer(ctx context.Context, qid string, a *models.Answer) (*models.Answer, error) {
	row := models.Answer{
		ID:          uuid.NewString(),
		QuestionID:  qid,
		Text:        a.Text,
		AnsBy:       a.AnsBy,
		AnsDateTime: a.AnsDateTime,
	}
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, &models.Question{}, "question", qid); err != nil {
			return err
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("create answer: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	row.Comments = []models.Comment{}
	return &row, nil
}

// GetAnswer returns the answer with its comments.
func (p *Postgres) GetAnswer(ctx context.Context, id string) (*models.Answer, error) {
	if err := checkID("answer", id); err != nil {
		return nil, err
	}
	var a models.Answer
	err := p.db.WithContext(ctx).
		Preload("Comments", ordered("created_at, id")).
		First(&a, "id = ?", id).Error
	if err != nil {
		return nil, notFound("answer", id, err)
	}
	if a.Comments == nil {
		a.Comments = []models.Comment{}
	}
	return &a, nil
}

// AddComment attaches c to the question or answer targetID.
func (p *Postgres) AddComment(ctx context.Context, kind models.TargetKind, targetID string, c *models.Comment) (*models.Comment, error) {
	row := models.Comment{
		ID:              uuid.NewString(),
		Text:            c.Text,
		CommentBy:       c.CommentBy,
		CommentDateTime: c.CommentDateTime,
	}
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch kind {
		case models.TargetQuestion:
			if err := exists(tx, &models.Question{}, "question", targetID); err != nil {
				return err
			}
			row.QuestionID = &targetID
		case models.TargetAnswer:
			if err := exists(tx, &models.Answer{}, "answer", targetID); err != nil {
				return err
			}
			row.AnswerID = &targetID
		default:
			return fmt.Errorf("unknown comment target %q", kind)
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("create comment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ApplyVote toggles username's vote on question qid under a row lock.
func (p *Postgres) ApplyVote(ctx context.Context, qid, username string, dir models.VoteDirection) (models.VoteTally, error) {
	if err := checkID("question", qid); err != nil {
		return models.VoteTally{}, err
	}
	var tally models.VoteTally
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var q models.Question
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "up_votes", "down_votes").
			First(&q, "id = ?", qid).Error
		if err != nil {
			return notFound("question", qid, err)
		}

		tally = q.ApplyVote(username, dir)
		return tx.Model(&q).Updates(map[string]any{
			"up_votes":   pq.StringArray(tally.UpVotes),
			"down_votes": pq.StringArray(tally.DownVotes),
		}).Error
	})
	if err != nil {
		return models.VoteTally{}, err
	}
	return tally, nil
}

// TagsWithQuestionCount lists every tag with the number of questions using it.
func (p *Postgres) TagsWithQuestionCount(ctx context.Context) ([]models.TagData, error) {
	var rows []models.TagData
	err := p.db.WithContext(ctx).
		Table("tags").
		Select("tags.name AS name, COUNT(question_tags.question_id) AS count").
		Joins("LEFT JOIN question_tags ON question_tags.tag_id = tags.id").
		Group("tags.name").
		Order("tags.name").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count tags: %w", err)
	}
	return rows, nil
}

// TagByName returns the tag called name.
func (p *Postgres) TagByName(ctx context.Context, name string) (*models.Tag, error) {
	var t models.Tag
	if err := p.db.WithContext(ctx).First(&t, "name = ?", strings.TrimSpace(name)).Error; err != nil {
		return nil, notFound("tag", name, err)
	}
	return &t, nil
}

func exists(tx *gorm.DB, model any, kind, id string) error {
	if err := checkID(kind, id); err != nil {
		return err
	}
	var n int64
	if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return fmt.Errorf("lookup %s: %w", kind, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, models.ErrNotFound)
	}
	return nil
}

// normalizeQuestion replaces nil slices so the aggregate encodes as empty
// JSON arrays rather than null.
func normalizeQuestion(q *models.Question) {
	if q.Tags == nil {
		q.Tags = []models.Tag{}
	}
	if q.Answers == nil {
		q.Answers = []models.Answer{}
	}
	if q.Comments == nil {
		q.Comments = []models.Comment{}
	}
	if q.UpVotes == nil {
		q.UpVotes = pq.StringArray{}
	}
	if q.DownVotes == nil {
		q.DownVotes = pq.StringArray{}
	}
	for i := range q.Answers {
		if q.Answers[i].Comments == nil {
			q.Answers[i].Comments = []models.Comment{}
		}
	}
}
