package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusfound/lostfound-backend/internal/models"
	"github.com/campusfound/lostfound-backend/internal/repository/common"
)

// ErrItemNotFound возвращается, когда объявление не найдено.
var ErrItemNotFound = errors.New("item not found")

// ItemRepository отвечает за объявления о потерянных и найденных вещах.
type ItemRepository struct {
	db *sqlx.DB
}

// NewItemRepository создаёт экземпляр репозитория.
func NewItemRepository(db *sqlx.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// itemRow — плоская строка выборки с join-ами категории, места и владельца.
type itemRow struct {
	models.Item
	CatID        *uuid.UUID `db:"cat_id"`
	CatName      *string    `db:"cat_name"`
	CatSlug      *string    `db:"cat_slug"`
	CatIcon      *string    `db:"cat_icon"`
	LocID        *uuid.UUID `db:"loc_id"`
	LocName      *string    `db:"loc_name"`
	LocBuilding  *string    `db:"loc_building"`
	OwnerName    *string    `db:"owner_username"`
	OwnerDisplay *string    `db:"owner_display_name"`
	OwnerRole    *string    `db:"owner_role"`
}

// assemble собирает вложенные структуры из плоской строки.
func (row *itemRow) assemble() models.Item {
	item := row.Item

	if row.CatID != nil {
		item.Category = &models.Category{ID: *row.CatID, Name: *row.CatName, Slug: *row.CatSlug, Icon: row.CatIcon}
	}
	if row.LocID != nil {
		item.Location = &models.Location{ID: *row.LocID, Name: *row.LocName, Building: row.LocBuilding}
	}
	if row.OwnerName != nil {
		displayName := *row.OwnerName
		if row.OwnerDisplay != nil {
			displayName = *row.OwnerDisplay
		}
		role := models.RoleStudent
		if row.OwnerRole != nil {
			role = *row.OwnerRole
		}
		item.Owner = &models.UserSummary{ID: item.UserID, Username: *row.OwnerName, DisplayName: displayName, Role: role}
	}

	return item
}

const itemSelectColumns = `
	i.*,
	c.id AS cat_id, c.name AS cat_name, c.slug AS cat_slug, c.icon AS cat_icon,
	l.id AS loc_id, l.name AS loc_name, l.building AS loc_building,
	u.username AS owner_username,
	COALESCE(p.display_name, u.username) AS owner_display_name,
	u.role AS owner_role
`

const itemSelectJoins = `
	FROM items i
	LEFT JOIN categories c ON c.id = i.category_id
	LEFT JOIN locations l ON l.id = i.location_id
	JOIN users u ON u.id = i.user_id
	LEFT JOIN profiles p ON p.user_id = u.id
`

// Create сохраняет новое объявление (статус pending).
func (r *ItemRepository) Create(ctx context.Context, item *models.Item) error {
	query := `
		INSERT INTO items (user_id, type, title, description, category_id, location_id, reward_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, status, views_count, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx,
		query,
		item.UserID,
		item.Type,
		item.Title,
		item.Description,
		item.CategoryID,
		item.LocationID,
		item.RewardAmount,
	).Scan(&item.ID, &item.Status, &item.ViewsCount, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return fmt.Errorf("item repository: create %w", err)
	}

	return nil
}

// GetByID возвращает объявление без вложенных данных.
func (r *ItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	return common.GetByID[models.Item](ctx, r.db, "items", id, ErrItemNotFound)
}

// GetByIDWithDetails возвращает объявление с категорией, местом и владельцем.
func (r *ItemRepository) GetByIDWithDetails(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var row itemRow
	query := "SELECT " + itemSelectColumns + itemSelectJoins + " WHERE i.id = $1"
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("item repository: get with details %w", err)
	}

	item := row.assemble()

	photos, err := r.ListPhotos(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Photos = photos

	return &item, nil
}

// List возвращает объявления по фильтру с вложенными данными.
func (r *ItemRepository) List(ctx context.Context, filter models.ItemFilter) ([]models.Item, error) {
	query := "SELECT " + itemSelectColumns + itemSelectJoins + " WHERE 1=1"
	args := []interface{}{}
	argIndex := 1

	// Фильтр по статусу
	if filter.Status != "" {
		query += fmt.Sprintf(" AND i.status = $%d", argIndex)
		args = append(args, filter.Status)
		argIndex++
	}

	// Фильтр по типу (lost/found)
	if filter.Type != "" {
		query += fmt.Sprintf(" AND i.type = $%d", argIndex)
		args = append(args, filter.Type)
		argIndex++
	}

	if filter.CategoryID != nil {
		query += fmt.Sprintf(" AND i.category_id = $%d", argIndex)
		args = append(args, *filter.CategoryID)
		argIndex++
	}

	if filter.LocationID != nil {
		query += fmt.Sprintf(" AND i.location_id = $%d", argIndex)
		args = append(args, *filter.LocationID)
		argIndex++
	}

	// Поиск по тексту
	if filter.Search != "" {
		query += fmt.Sprintf(" AND (i.title ILIKE $%d OR i.description ILIKE $%d)", argIndex, argIndex)
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	query += " ORDER BY i.created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filter.Limit)
		argIndex++
	}

	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, filter.Offset)
	}

	var rows []itemRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("item repository: list %w", err)
	}

	items := make([]models.Item, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].assemble())
	}

	return items, nil
}

// ListByUser возвращает объявления конкретного пользователя.
func (r *ItemRepository) ListByUser(ctx context.Context, userID uuid.UUID, filter models.ItemFilter) ([]models.Item, error) {
	query := "SELECT " + itemSelectColumns + itemSelectJoins + " WHERE i.user_id = $1"
	args := []interface{}{userID}
	argIndex := 2

	if filter.Status != "" {
		query += fmt.Sprintf(" AND i.status = $%d", argIndex)
		args = append(args, filter.Status)
		argIndex++
	}

	if filter.Type != "" {
		query += fmt.Sprintf(" AND i.type = $%d", argIndex)
		args = append(args, filter.Type)
		argIndex++
	}

	query += " ORDER BY i.created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filter.Limit)
	}

	var rows []itemRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("item repository: list by user %w", err)
	}

	items := make([]models.Item, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].assemble())
	}

	return items, nil
}

// UpdateStatus выполняет одиночный переход статуса объявления.
// reject_reason задаётся только при отклонении, resolved_at — при завершении.
func (r *ItemRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, rejectReason *string) error {
	query := `
		UPDATE items SET
			status = $2,
			reject_reason = $3,
			resolved_at = CASE WHEN $2 = 'resolved' THEN NOW() ELSE resolved_at END,
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, status, rejectReason)
	if err != nil {
		return fmt.Errorf("item repository: update status %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("item repository: update status rows affected %w", err)
	}

	if rowsAffected == 0 {
		return ErrItemNotFound
	}

	return nil
}

// Update обновляет поля объявления (доступно владельцу, пока статус pending).
func (r *ItemRepository) Update(ctx context.Context, item *models.Item) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE items SET
			title = $2,
			description = $3,
			category_id = $4,
			location_id = $5,
			reward_amount = $6,
			updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, item.ID, item.Title, item.Description, item.CategoryID, item.LocationID, item.RewardAmount)
	if err != nil {
		return fmt.Errorf("item repository: update %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("item repository: update rows affected %w", err)
	}

	if rowsAffected == 0 {
		return ErrItemNotFound
	}

	return nil
}

// Delete удаляет объявление.
func (r *ItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("item repository: delete %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("item repository: delete rows affected %w", err)
	}

	if rowsAffected == 0 {
		return ErrItemNotFound
	}

	return nil
}

// IncrementViews увеличивает счётчик просмотров.
func (r *ItemRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE items SET views_count = views_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("item repository: increment views %w", err)
	}
	return nil
}

// CountByStatus возвращает количество объявлений в заданном статусе.
func (r *ItemRepository) CountByStatus(ctx context.Context, status string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM items WHERE status = $1`, status); err != nil {
		return 0, fmt.Errorf("item repository: count by status %w", err)
	}
	return count, nil
}

// TotalViews возвращает суммарное количество просмотров всех объявлений.
func (r *ItemRepository) TotalViews(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COALESCE(SUM(views_count), 0) FROM items`); err != nil {
		return 0, fmt.Errorf("item repository: total views %w", err)
	}
	return total, nil
}

// AttachPhoto привязывает фото к объявлению.
func (r *ItemRepository) AttachPhoto(ctx context.Context, itemID, mediaID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO item_photos (item_id, media_id) VALUES ($1, $2) ON CONFLICT DO NOTHING
	`, itemID, mediaID)
	if err != nil {
		return fmt.Errorf("item repository: attach photo %w", err)
	}
	return nil
}

// ListPhotos возвращает фото объявления.
func (r *ItemRepository) ListPhotos(ctx context.Context, itemID uuid.UUID) ([]models.MediaFile, error) {
	var photos []models.MediaFile
	err := r.db.SelectContext(ctx, &photos, `
		SELECT mf.* FROM item_photos ip
		JOIN media_files mf ON mf.id = ip.media_id
		WHERE ip.item_id = $1
		ORDER BY mf.created_at
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("item repository: list photos %w", err)
	}
	return photos, nil
}
