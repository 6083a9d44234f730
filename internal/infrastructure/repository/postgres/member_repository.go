package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/sunday-league/internal/domain/member"
	qb "github.com/riskibarqy/sunday-league/internal/platform/querybuilder"
)

const memberColumns = "id, group_id, user_id, display_name, photo_url, is_guest, role, legacy_ids, created_at, updated_at"

type MemberRepository struct {
	db *sqlx.DB
}

func NewMemberRepository(db *sqlx.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

func (r *MemberRepository) GetByID(ctx context.Context, memberID string) (member.Member, bool, error) {
	query, args, err := qb.Select(memberColumns).
		From("group_members").
		Where(qb.Eq("id", memberID)).
		ToSQL()
	if err != nil {
		return member.Member{}, false, fmt.Errorf("build get member query: %w", err)
	}
	return r.getOne(ctx, query, args)
}

func (r *MemberRepository) ListByGroup(ctx context.Context, groupID string) ([]member.Member, error) {
	query, args, err := qb.Select(memberColumns).
		From("group_members").
		Where(qb.Eq("group_id", groupID)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list members query: %w", err)
	}
	return r.list(ctx, query, args)
}

func (r *MemberRepository) FindByLegacyID(ctx context.Context, groupID, legacyID string) (member.Member, bool, error) {
	query, args, err := qb.Select(memberColumns).
		From("group_members").
		Where(
			qb.Eq("group_id", groupID),
			qb.Contains("legacy_ids", legacyID),
		).
		OrderBy("id").
		Limit(1).
		ToSQL()
	if err != nil {
		return member.Member{}, false, fmt.Errorf("build find member by legacy id query: %w", err)
	}
	return r.getOne(ctx, query, args)
}

func (r *MemberRepository) FindByUserID(ctx context.Context, groupID, userID string) (member.Member, bool, error) {
	query, args, err := qb.Select(memberColumns).
		From("group_members").
		Where(
			qb.Eq("group_id", groupID),
			qb.Eq("user_id", userID),
		).
		OrderBy("id").
		Limit(1).
		ToSQL()
	if err != nil {
		return member.Member{}, false, fmt.Errorf("build find member by user query: %w", err)
	}
	return r.getOne(ctx, query, args)
}

func (r *MemberRepository) FindByNormalizedName(ctx context.Context, groupID, name string) ([]member.Member, error) {
	query, args, err := qb.Select(memberColumns).
		From("group_members").
		Where(
			qb.Eq("group_id", groupID),
			qb.Expr("LOWER(TRIM(display_name)) = ?", member.NormalizeName(name)),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build find members by name query: %w", err)
	}
	return r.list(ctx, query, args)
}

func (r *MemberRepository) Create(ctx context.Context, item member.Member) error {
	query, args, err := qb.InsertModel("group_members", memberInsertModel{
		ID:          item.ID,
		GroupID:     item.GroupID,
		UserID:      optionalString(item.UserID),
		DisplayName: strings.TrimSpace(item.DisplayName),
		PhotoURL:    optionalString(item.PhotoURL),
		IsGuest:     item.IsGuest,
		Role:        string(item.Role),
		LegacyIDs:   pq.StringArray(nonNilStrings(item.LegacyIDs)),
		CreatedAt:   item.CreatedAt.UTC(),
		UpdatedAt:   item.UpdatedAt.UTC(),
	}, "")
	if err != nil {
		return fmt.Errorf("build insert member query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert member id=%s: %w", item.ID, err)
	}
	return nil
}

func (r *MemberRepository) Update(ctx context.Context, item member.Member) error {
	query, args, err := qb.Update("group_members").
		Set("user_id", optionalString(item.UserID)).
		Set("display_name", strings.TrimSpace(item.DisplayName)).
		Set("photo_url", optionalString(item.PhotoURL)).
		Set("is_guest", item.IsGuest).
		Set("role", string(item.Role)).
		Set("updated_at", item.UpdatedAt.UTC()).
		Where(qb.Eq("id", item.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update member query: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update member id=%s: %w", item.ID, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("member not found: %s", item.ID)
	}
	return nil
}

func (r *MemberRepository) AddLegacyIDs(ctx context.Context, memberID string, legacyIDs []string) error {
	if len(legacyIDs) == 0 {
		return nil
	}
	query, args, err := qb.Update("group_members").
		SetExpr("legacy_ids", "ARRAY(SELECT DISTINCT UNNEST(legacy_ids || ?::text[]))", pq.StringArray(legacyIDs)).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", memberID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build add member legacy ids query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("add legacy ids member=%s: %w", memberID, err)
	}
	return nil
}

func (r *MemberRepository) getOne(ctx context.Context, query string, args []any) (member.Member, bool, error) {
	var row memberTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return member.Member{}, false, nil
		}
		return member.Member{}, false, fmt.Errorf("get member: %w", err)
	}
	return memberFromRow(row), true, nil
}

func (r *MemberRepository) list(ctx context.Context, query string, args []any) ([]member.Member, error) {
	var rows []memberTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	out := make([]member.Member, 0, len(rows))
	for _, row := range rows {
		out = append(out, memberFromRow(row))
	}
	return out, nil
}

func memberFromRow(row memberTableModel) member.Member {
	return member.Member{
		ID:          row.ID,
		GroupID:     row.GroupID,
		UserID:      row.UserID.String,
		DisplayName: row.DisplayName,
		PhotoURL:    row.PhotoURL.String,
		IsGuest:     row.IsGuest,
		Role:        member.Role(row.Role),
		LegacyIDs:   append([]string(nil), row.LegacyIDs...),
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func nonNilStrings(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
