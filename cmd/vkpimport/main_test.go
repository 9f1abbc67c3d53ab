package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/EugeneSatt/VKP-Table/internal/store"
)

// setupRun 写入指向临时 SQLite 的配置文件，返回数据目录
func setupRun(t *testing.T) string {
	t.Helper()

	for _, key := range []string{"DISABLE_DB", "DB_HOST", "VKP_DB_DRIVER", "VKP_DB_DSN"} {
		t.Setenv(key, "")
	}

	root := t.TempDir()
	dir := filepath.Join(root, "data")
	cfgFile := filepath.Join(root, "config.toml")
	content := fmt.Sprintf("[data]\ndata_dir = %q\n\n[database]\ndriver = \"sqlite3\"\nsqlite_file = \"vkp.db\"\n\n[log]\nlevel = \"error\"\n", dir)
	if err := os.WriteFile(cfgFile, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	prevConfig, prevDir := *configPath, *dataDir
	*configPath, *dataDir = cfgFile, ""
	t.Cleanup(func() { *configPath, *dataDir = prevConfig, prevDir })
	return dir
}

func writePlan(t *testing.T, path string) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	if err := f.SetCellValue(sheet, "F4", "Артикул"); err != nil {
		t.Fatalf("set header: %v", err)
	}
	if err := f.SetSheetRow(sheet, "P4", &[]any{45932, 45933}); err != nil {
		t.Fatalf("set dates: %v", err)
	}
	if err := f.SetCellStr(sheet, "F5", "abc-1"); err != nil {
		t.Fatalf("set article: %v", err)
	}
	if err := f.SetSheetRow(sheet, "P5", &[]any{3, 4}); err != nil {
		t.Fatalf("set values: %v", err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
}

func TestRun_ImportsIntoSQLite(t *testing.T) {
	dir := setupRun(t)
	plan := filepath.Join(t.TempDir(), "plan.xlsx")
	writePlan(t, plan)

	if code := run([]string{plan}); code != 0 {
		t.Fatalf("want exit code 0, got %d", code)
	}

	// run 返回后数据库已关闭，重新打开校验写入
	st, err := store.New(filepath.Join(dir, "vkp.db"))
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer st.Close()

	stats, err := st.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Records != 2 || stats.Articles != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestRun_FailuresExitNonZero(t *testing.T) {
	setupRun(t)

	bad := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(bad, []byte("not a workbook"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if code := run([]string{bad}); code != 1 {
		t.Fatalf("rejected file: want exit code 1, got %d", code)
	}
	if code := run([]string{filepath.Join(t.TempDir(), "missing.xlsx")}); code != 1 {
		t.Fatalf("missing file: want exit code 1, got %d", code)
	}
}

func TestRun_MemoryBackendRefused(t *testing.T) {
	setupRun(t)
	t.Setenv("DISABLE_DB", "1")

	if code := run([]string{"plan.xlsx"}); code != 1 {
		t.Fatalf("want exit code 1, got %d", code)
	}
}
