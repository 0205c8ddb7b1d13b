package folder

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mwantia/evtrec/pkg/db/models"
	"github.com/mwantia/evtrec/pkg/errs"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventDateLayout is the format of default event dates.
const EventDateLayout = "2006-01-02 15:04"

// EventInput holds event fields. Nil fields are left untouched on update.
type EventInput struct {
	EventDate   *string
	Name        *string
	Description *string
	Remark      *string
}

// EventDetail is an event together with its linked files, newest first.
type EventDetail struct {
	models.Event
	Files []models.EventFile `json:"files"`
}

// ListEvents returns events ordered by date and id, newest first. A non-empty
// query matches name, description or remark; a non-zero tagID restricts the
// result to events carrying that tag.
func (e *Engine) ListEvents(ctx context.Context, query string, tagID uint) ([]models.Event, error) {
	q := e.db.WithContext(ctx).
		Model(&models.Event{}).
		Select("events.*, (SELECT COUNT(*) FROM event_files ef WHERE ef.event_id = events.id) AS file_count")

	if query = strings.TrimSpace(query); query != "" {
		like := "%" + query + "%"
		q = q.Where("(events.name LIKE ? OR events.description LIKE ? OR events.remark LIKE ?)", like, like, like)
	}
	if tagID > 0 {
		q = q.Where("EXISTS (SELECT 1 FROM event_tags et WHERE et.event_id = events.id AND et.tag_id = ?)", tagID)
	}

	events := []models.Event{}
	if err := q.Order("events.event_date DESC").Order("events.id DESC").Find(&events).Error; err != nil {
		return nil, errs.Wrap(errs.Storage, "failed to list events", err)
	}

	if err := e.attachTags(ctx, events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetEvent returns the event with its tags and linked files.
func (e *Engine) GetEvent(ctx context.Context, id uint) (*EventDetail, error) {
	event, err := e.findEvent(e.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}

	events := []models.Event{*event}
	if err := e.attachTags(ctx, events); err != nil {
		return nil, err
	}

	detail := &EventDetail{
		Event: events[0],
		Files: []models.EventFile{},
	}
	if err := e.db.WithContext(ctx).Where("event_id = ?", id).Order("id DESC").Find(&detail.Files).Error; err != nil {
		return nil, errs.Wrap(errs.Storage, "failed to load event files", err)
	}
	detail.FileCount = int64(len(detail.Files))

	return detail, nil
}

// CreateEvent stores a new event. The name is required; a missing date
// defaults to the current time in the configured location.
func (e *Engine) CreateEvent(ctx context.Context, in EventInput) (*EventDetail, error) {
	name := trimmed(in.Name)
	if name == "" {
		return nil, errs.New(errs.Validation, "event name is required")
	}

	date := trimmed(in.EventDate)
	if date == "" {
		date = e.now().Format(EventDateLayout)
	}

	event := models.Event{
		EventDate:   date,
		Name:        name,
		Description: trimmed(in.Description),
		Remark:      trimmed(in.Remark),
	}
	if err := e.db.WithContext(ctx).Create(&event).Error; err != nil {
		return nil, errs.Wrap(errs.Storage, "failed to create event", err)
	}

	e.log.Debug("Created event %d '%s'", event.ID, event.Name)
	return e.GetEvent(ctx, event.ID)
}

// UpdateEvent overlays the provided fields onto an existing event. An empty
// event date keeps the stored one.
func (e *Engine) UpdateEvent(ctx context.Context, id uint, in EventInput) (*EventDetail, error) {
	event, err := e.findEvent(e.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		event.Name = strings.TrimSpace(*in.Name)
	}
	if event.Name == "" {
		return nil, errs.New(errs.Validation, "event name is required")
	}
	if date := trimmed(in.EventDate); date != "" {
		event.EventDate = date
	}
	if in.Description != nil {
		event.Description = strings.TrimSpace(*in.Description)
	}
	if in.Remark != nil {
		event.Remark = strings.TrimSpace(*in.Remark)
	}

	err = e.db.WithContext(ctx).
		Model(event).
		Select("event_date", "name", "description", "remark", "updated_at").
		Updates(event).Error
	if err != nil {
		return nil, errs.Wrap(errs.Storage, "failed to update event", err)
	}

	return e.GetEvent(ctx, id)
}

// SetEventTags replaces all tags of an event in a single transaction. Tags
// are created on demand; blank names are ignored.
func (e *Engine) SetEventTags(ctx context.Context, id uint, names []string) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := e.findEvent(tx, id); err != nil {
			return err
		}

		if err := tx.Where("event_id = ?", id).Delete(&models.EventTag{}).Error; err != nil {
			return errs.Wrap(errs.Storage, "failed to clear event tags", err)
		}

		for _, name := range names {
			if strings.TrimSpace(name) == "" {
				continue
			}

			tag, err := findOrCreateTag(tx, name)
			if err != nil {
				return err
			}

			link := models.EventTag{EventID: id, TagID: tag.ID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
				return errs.Wrap(errs.Storage, "failed to link tag", err)
			}
		}

		return nil
	})
}

func (e *Engine) findEvent(tx *gorm.DB, id uint) (*models.Event, error) {
	if id == 0 {
		return nil, errs.New(errs.Validation, "event id must be positive")
	}

	var event models.Event
	if err := tx.First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Newf(errs.NotFound, "event %d not found", id)
		}
		return nil, errs.Wrap(errs.Storage, "failed to load event", err)
	}
	return &event, nil
}

type eventTagRow struct {
	EventID   uint
	ID        uint
	Name      string
	NameNorm  string
	CreatedAt time.Time
}

// attachTags loads the tags of all given events in one query.
func (e *Engine) attachTags(ctx context.Context, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}

	ids := make([]uint, len(events))
	index := make(map[uint]int, len(events))
	for i := range events {
		ids[i] = events[i].ID
		index[events[i].ID] = i
		events[i].Tags = []models.Tag{}
	}

	var rows []eventTagRow
	err := e.db.WithContext(ctx).
		Table("event_tags").
		Select("event_tags.event_id, tags.id, tags.name, tags.name_norm, tags.created_at").
		Joins("JOIN tags ON tags.id = event_tags.tag_id").
		Where("event_tags.event_id IN ?", ids).
		Order("tags.name_norm ASC").
		Scan(&rows).Error
	if err != nil {
		return errs.Wrap(errs.Storage, "failed to load event tags", err)
	}

	for _, row := range rows {
		i := index[row.EventID]
		events[i].Tags = append(events[i].Tags, models.Tag{
			ID:        row.ID,
			Name:      row.Name,
			NameNorm:  row.NameNorm,
			CreatedAt: row.CreatedAt,
		})
	}
	return nil
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
