package graph

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/micahrl/graphsync/internal/record"
)

// Object is a remote object together with its current assignment list.
type Object struct {
	Record      record.Record
	Assignments []record.Record
}

// assignmentsField is the navigation property expanded by ListObjects.
const assignmentsField = "assignments"

// ListObjects fetches every object at endpoint. When withAssignments is set,
// each object's assignments are expanded in the same request and moved from
// the record into Object.Assignments; otherwise Assignments is nil.
func (c *Client) ListObjects(ctx context.Context, endpoint string, withAssignments bool) ([]Object, error) {
	path := endpoint
	if withAssignments {
		path += "?$expand=" + assignmentsField
	}
	items, err := c.List(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", endpoint, err)
	}

	objects := make([]Object, 0, len(items))
	for _, item := range items {
		if item.ID() == "" {
			return nil, fmt.Errorf("listing %s: object without id", endpoint)
		}
		obj := Object{Record: item}
		if withAssignments {
			obj.Assignments = []record.Record{}
			raw, _ := item[assignmentsField].([]any)
			for _, a := range raw {
				if ar, ok := record.AsRecord(a); ok {
					obj.Assignments = append(obj.Assignments, ar)
				}
			}
			delete(item, assignmentsField)
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

// FindGroups returns the directory groups whose display name equals name.
func (c *Client) FindGroups(ctx context.Context, name string) ([]record.Record, error) {
	filter := fmt.Sprintf("displayName eq '%s'", strings.ReplaceAll(name, "'", "''"))
	return c.List(ctx, "groups?$filter="+url.QueryEscape(filter))
}

// CreateGroup creates a security group named name and returns it.
func (c *Client) CreateGroup(ctx context.Context, name string) (record.Record, error) {
	body := map[string]any{
		"displayName":     name,
		"mailEnabled":     false,
		"mailNickname":    mailNickname(name),
		"securityEnabled": true,
		"description":     "Created by graphsync",
	}
	return c.Post(ctx, "groups", body, 201)
}

func mailNickname(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r < 128 && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' || r == '.') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "graphsync-group"
	}
	return b.String()
}

func joinPath(parts ...string) string {
	for i, p := range parts {
		parts[i] = strings.Trim(p, "/")
	}
	return strings.Join(parts, "/")
}
