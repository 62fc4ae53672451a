package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GroupRole is a member's role in a group
type GroupRole string

const (
	GroupRoleOwner  GroupRole = "owner"
	GroupRoleMember GroupRole = "member"
)

// ErrNotGroupOwner is returned when a non-owner attempts an owner-only action.
var ErrNotGroupOwner = errors.New("only the group owner can do this")

// Group is a set of users sharing a calendar and celebration plans
type Group struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InviteCode  string         `json:"invite_code"`
	OwnerID     int64          `json:"owner_id"`
	CalendarID  int64          `json:"calendar_id"`
	CreatedAt   time.Time      `json:"created_at"`
	Members     []*GroupMember `json:"members,omitempty"`
}

// GroupMember is a user's membership in a group
type GroupMember struct {
	UserID   int64     `json:"user_id"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	Role     GroupRole `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// NewInviteCode returns a short random code for joining a group.
func NewInviteCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

// CreateGroup creates the group, its owner membership and its shared calendar in one transaction.
func (d *DB) CreateGroup(ownerID int64, name, description string) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidf("group name is required")
	}

	tx, err := d.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	inviteCode := NewInviteCode()
	result, err := tx.Exec(`
		INSERT INTO user_groups (name, description, invite_code, owner_id) VALUES (?, ?, ?, ?)
	`, name, description, inviteCode, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	groupID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get group id: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO group_members (group_id, user_id, role) VALUES (?, ?, ?)
	`, groupID, ownerID, GroupRoleOwner); err != nil {
		return nil, fmt.Errorf("failed to add group owner: %w", err)
	}

	result, err = tx.Exec(`
		INSERT INTO calendars (owner_id, group_id, name) VALUES (?, ?, ?)
	`, ownerID, groupID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create group calendar: %w", err)
	}
	calendarID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get calendar id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit group: %w", err)
	}

	return &Group{
		ID:          groupID,
		Name:        name,
		Description: description,
		InviteCode:  inviteCode,
		OwnerID:     ownerID,
		CalendarID:  calendarID,
		CreatedAt:   time.Now(),
	}, nil
}

const groupSelect = `
	SELECT g.id, g.name, g.description, g.invite_code, g.owner_id,
		COALESCE((SELECT MIN(c.id) FROM calendars c WHERE c.group_id = g.id), 0),
		g.created_at
	FROM user_groups g`

func scanGroup(row rowScanner) (*Group, error) {
	var g Group
	if err := row.Scan(&g.ID, &g.Name, &g.Description, &g.InviteCode, &g.OwnerID, &g.CalendarID, &g.CreatedAt); err != nil {
		return nil, err
	}
	return &g, nil
}

// GetGroupForMember returns the group with its members if userID belongs to it.
func (d *DB) GetGroupForMember(userID, groupID int64) (*Group, error) {
	row := d.QueryRow(groupSelect+`
		WHERE g.id = ? AND EXISTS (
			SELECT 1 FROM group_members m WHERE m.group_id = g.id AND m.user_id = ?
		)
	`, groupID, userID)
	group, err := scanGroup(row)
	if err != nil {
		return nil, notFound(err, "group")
	}

	members, err := d.ListGroupMembers(groupID)
	if err != nil {
		return nil, err
	}
	group.Members = members
	return group, nil
}

// ListGroupsForUser lists the groups userID belongs to.
func (d *DB) ListGroupsForUser(userID int64) ([]*Group, error) {
	rows, err := d.Query(groupSelect+`
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = ?
		ORDER BY g.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	groups := make([]*Group, 0)
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// ListGroupMembers lists a group's members, owner first.
func (d *DB) ListGroupMembers(groupID int64) ([]*GroupMember, error) {
	rows, err := d.Query(`
		SELECT u.id, u.email, u.name, m.role, m.joined_at
		FROM group_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.group_id = ?
		ORDER BY CASE m.role WHEN 'owner' THEN 0 ELSE 1 END, m.joined_at, u.id
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}
	defer rows.Close()

	members := make([]*GroupMember, 0)
	for rows.Next() {
		var m GroupMember
		if err := rows.Scan(&m.UserID, &m.Email, &m.Name, &m.Role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		members = append(members, &m)
	}
	return members, rows.Err()
}

// JoinGroupByInviteCode adds userID to the group with the given invite code.
// Joining a group twice is a no-op.
func (d *DB) JoinGroupByInviteCode(userID int64, inviteCode string) (*Group, error) {
	row := d.QueryRow(groupSelect+` WHERE g.invite_code = ?`, strings.ToUpper(strings.TrimSpace(inviteCode)))
	group, err := scanGroup(row)
	if err != nil {
		return nil, notFound(err, "group")
	}

	if _, err := d.Exec(`
		INSERT OR IGNORE INTO group_members (group_id, user_id, role) VALUES (?, ?, ?)
	`, group.ID, userID, GroupRoleMember); err != nil {
		return nil, fmt.Errorf("failed to join group: %w", err)
	}

	return group, nil
}

// RemoveGroupMember removes memberID from the group. Members may remove themselves;
// the owner may remove anyone but cannot leave their own group.
func (d *DB) RemoveGroupMember(actorID, groupID, memberID int64) error {
	group, err := d.GetGroupForMember(actorID, groupID)
	if err != nil {
		return err
	}
	if actorID != memberID && group.OwnerID != actorID {
		return ErrNotGroupOwner
	}
	if memberID == group.OwnerID {
		return invalidf("the owner cannot leave the group; delete it instead")
	}

	result, err := d.Exec(`DELETE FROM group_members WHERE group_id = ? AND user_id = ?`, groupID, memberID)
	if err != nil {
		return fmt.Errorf("failed to remove group member: %w", err)
	}
	return checkAffected(result, "group member")
}

// DeleteGroup deletes a group (and its calendar) if actorID owns it.
func (d *DB) DeleteGroup(actorID, groupID int64) error {
	group, err := d.GetGroupForMember(actorID, groupID)
	if err != nil {
		return err
	}
	if group.OwnerID != actorID {
		return ErrNotGroupOwner
	}

	if _, err := d.Exec(`DELETE FROM user_groups WHERE id = ?`, groupID); err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return nil
}

// IsGroupMember reports whether userID belongs to groupID.
func (d *DB) IsGroupMember(userID, groupID int64) (bool, error) {
	var n int
	err := d.QueryRow(`
		SELECT COUNT(*) FROM group_members WHERE group_id = ? AND user_id = ?
	`, groupID, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check group membership: %w", err)
	}
	return n > 0, nil
}
