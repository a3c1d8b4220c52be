package devserver

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedFile describes initial data loaded into an empty database on start.
type SeedFile struct {
	Users  []SeedUser  `yaml:"users"`
	Tags   []SeedTag   `yaml:"tags"`
	Issues []SeedIssue `yaml:"issues"`
}

type SeedUser struct {
	Name string `yaml:"name"`
	Role string `yaml:"role"`
}

type SeedTag struct {
	Tag   string `yaml:"tag"`
	Color string `yaml:"color"`
}

type SeedIssue struct {
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	Author      string        `yaml:"author"`
	Status      string        `yaml:"status"`
	AssignedTo  string        `yaml:"assigned_to"`
	Tags        []string      `yaml:"tags"`
	Comments    []SeedComment `yaml:"comments"`
}

type SeedComment struct {
	Author string `yaml:"author"`
	Text   string `yaml:"text"`
}

// LoadSeedFile parses a YAML seed file.
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &seed, nil
}

// Seed applies the seed data to the active store. It only runs against an
// empty database so restarting a seeded server does not duplicate rows.
func (m *Manager) Seed(ctx context.Context, seed *SeedFile) error {
	store := m.Store()

	existing, err := store.ListIssues(ctx)
	if err != nil {
		return err
	}
	users, err := store.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 || len(users) > 0 {
		return nil
	}

	for _, user := range seed.Users {
		if _, err := store.CreateUser(ctx, user.Name, user.Role); err != nil {
			return fmt.Errorf("seed user %s: %w", user.Name, err)
		}
	}

	for _, issue := range seed.Issues {
		created, err := store.CreateIssue(ctx, issue.Title, issue.Description, issue.Author)
		if err != nil {
			return fmt.Errorf("seed issue %q: %w", issue.Title, err)
		}
		if issue.Status != "" {
			if err := store.UpdateIssueField(ctx, created.ID, "status", issue.Status); err != nil {
				return fmt.Errorf("seed issue %q status: %w", issue.Title, err)
			}
		}
		if issue.AssignedTo != "" {
			if err := store.AssignIssue(ctx, issue.AssignedTo, created.ID); err != nil {
				return fmt.Errorf("seed issue %q assignee: %w", issue.Title, err)
			}
		}
		for _, label := range issue.Tags {
			color := ""
			for _, tag := range seed.Tags {
				if tag.Tag == label {
					color = tag.Color
					break
				}
			}
			if err := store.TagIssue(ctx, created.ID, label, color); err != nil {
				return fmt.Errorf("seed issue %q tag %s: %w", issue.Title, label, err)
			}
		}
		for _, comment := range issue.Comments {
			if _, err := store.AddComment(ctx, created.ID, comment.Text, comment.Author); err != nil {
				return fmt.Errorf("seed issue %q comment: %w", issue.Title, err)
			}
		}
	}
	return nil
}
