package migrations

import (
	"strings"
	"testing"
)

func TestSchoolMigrationContainsRequiredTables(t *testing.T) {
	body, err := embeddedFS.ReadFile("sql/000001_school.up.sql")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	sql := string(body)
	requiredSnippets := []string{
		"CREATE TABLE classes",
		"CREATE TABLE teachers",
		"CREATE TABLE students",
		"CREATE TABLE subjects",
		"CREATE TABLE courses",
		"CREATE TABLE grades",
		"CREATE TABLE attendance",
		"CREATE TABLE class_performance",
		"CREATE INDEX idx_grades_subject_score",
		"CREATE INDEX idx_attendance_student_date",
	}
	for _, snippet := range requiredSnippets {
		if !strings.Contains(sql, snippet) {
			t.Fatalf("migration missing required snippet: %s", snippet)
		}
	}
}

func TestMigrationsLoadInPairs(t *testing.T) {
	migrations, err := loadMigrations(embeddedFS)
	if err != nil {
		t.Fatalf("loadMigrations() error = %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("migrations = %d, want schema + sample data", len(migrations))
	}
	for i, item := range migrations {
		if item.Version != int64(i+1) {
			t.Fatalf("migration %d has version %d", i, item.Version)
		}
		if strings.TrimSpace(item.UpSQL) == "" || strings.TrimSpace(item.DownSQL) == "" {
			t.Fatalf("migration %d missing a direction", item.Version)
		}
	}
}
