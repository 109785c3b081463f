package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/paketsoal/internal/export"
	"github.com/pavelanni/paketsoal/internal/handler"
	appI18n "github.com/pavelanni/paketsoal/internal/i18n"
	"github.com/pavelanni/paketsoal/internal/model"
	"github.com/pavelanni/paketsoal/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "paketsoal",
		Short: "Question package store and GIFT/DOCX/PDF exporter",
	}

	serve := serveCmd()
	root.AddCommand(serve, importCmd(), listCmd(), exportCmd(), copyCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `paketsoal --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func addCommonFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("db", "paketsoal.db", "SQLite database path")
	f.StringP("lang", "l", "id", "Label language (id, en)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP export server",
		RunE:  runServe,
	}
	cmd.Flags().StringP("addr", "a", ":8080", "HTTP listen address")
	cmd.Flags().StringSliceP("packages", "p", nil, "Package JSON files to import on startup (repeatable)")
	addCommonFlags(cmd)
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Import package JSON files into the database",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runImport,
	}
	addCommonFlags(cmd)
	return cmd
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored packages",
		RunE:  runList,
	}
	addCommonFlags(cmd)
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a package as GIFT, DOCX or PDF",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.Int64("package-id", 0, "Stored package ID")
	f.String("file", "", "Package JSON file to export without using the database")
	f.StringP("format", "f", string(export.FormatGIFT), "Export format (gift, docx, pdf)")
	f.StringP("output", "o", "", "Output file path (- for stdout, empty for the generated filename)")
	addCommonFlags(cmd)

	cmd.MarkFlagsOneRequired("package-id", "file")
	cmd.MarkFlagsMutuallyExclusive("package-id", "file")

	return cmd
}

func copyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Print a package as plain question/answer text",
		RunE:  runCopy,
	}
	cmd.Flags().Int64("package-id", 0, "Stored package ID (required)")
	addCommonFlags(cmd)
	_ = cmd.MarkFlagRequired("package-id")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("PAKETSOAL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("paketsoal")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/paketsoal")
	v.AddConfigPath("/etc/paketsoal")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// prepare runs the setup shared by every command and returns its config.
func prepare(cmd *cobra.Command) (*viper.Viper, error) {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	if err := appI18n.Init(v.GetString("lang")); err != nil {
		return nil, fmt.Errorf("init i18n: %w", err)
	}
	return v, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	v, err := prepare(cmd)
	if err != nil {
		return err
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := loadPackages(db, v.GetStringSlice("packages")); err != nil {
		return fmt.Errorf("load packages: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware())
	handler.New(db).Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server", "addr", addr, "db", v.GetString("db"), "lang", v.GetString("lang"))
	return http.ListenAndServe(addr, r)
}

func runImport(cmd *cobra.Command, args []string) error {
	v, err := prepare(cmd)
	if err != nil {
		return err
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	return loadPackages(db, args)
}

func runList(cmd *cobra.Command, _ []string) error {
	v, err := prepare(cmd)
	if err != nil {
		return err
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	list, err := db.ListPackages()
	if err != nil {
		return fmt.Errorf("list packages: %w", err)
	}

	ctx := context.Background()
	w := cmd.OutOrStdout()
	for _, ps := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\n", ps.ID, ps.Name, appI18n.Tp(ctx, "PackageQuestions", ps.QuestionCount))
	}
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	v, err := prepare(cmd)
	if err != nil {
		return err
	}

	format, err := export.ParseFormat(v.GetString("format"))
	if err != nil {
		return err
	}

	var pkg model.Package
	if path := v.GetString("file"); path != "" {
		pkgs, err := readPackageFile(path)
		if err != nil {
			return err
		}
		if len(pkgs) != 1 {
			return fmt.Errorf("%s: expected one package, found %d", path, len(pkgs))
		}
		pkg = pkgs[0].ToPackage()
	} else {
		if pkg, err = loadStoredPackage(v); err != nil {
			return err
		}
	}

	labels := appI18n.Labels(context.Background())
	res, err := export.Default(labels).Export(pkg, format)
	if err != nil {
		return err
	}

	outPath := v.GetString("output")
	if outPath == "" {
		outPath = res.Filename
	}
	if err := writeOutput(cmd.OutOrStdout(), outPath, res.Data); err != nil {
		return err
	}

	slog.Info("exported package",
		"package", pkg.Name,
		"format", format,
		"output", outPath,
		"size", humanize.Bytes(uint64(len(res.Data))),
	)
	return nil
}

// writeOutput writes data to path, or to stdout when path is "-".
func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "-" {
		if _, err := stdout.Write(data); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write output: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}
	return nil
}

func runCopy(cmd *cobra.Command, _ []string) error {
	v, err := prepare(cmd)
	if err != nil {
		return err
	}

	pkg, err := loadStoredPackage(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), export.ClipboardText(pkg, appI18n.Labels(context.Background())))
	return err
}

func loadStoredPackage(v *viper.Viper) (model.Package, error) {
	db, err := store.New(v.GetString("db"))
	if err != nil {
		return model.Package{}, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	pkg, err := db.GetPackage(v.GetInt64("package-id"))
	if err != nil {
		return model.Package{}, fmt.Errorf("load package: %w", err)
	}
	return pkg, nil
}

// readPackageFile decodes a file holding one package object or an array of them.
func readPackageFile(path string) ([]model.PackageImport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return parsePackages(path, data)
}

func parsePackages(path string, data []byte) ([]model.PackageImport, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var pkgs []model.PackageImport
		if err := json.Unmarshal(trimmed, &pkgs); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return pkgs, nil
	}
	var pi model.PackageImport
	if err := json.Unmarshal(trimmed, &pi); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return []model.PackageImport{pi}, nil
}

func loadPackages(db *store.Store, paths []string) error {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		hash := sha256sum(data)
		storedHash, err := db.GetImportedFileHash(path)
		if err != nil {
			return fmt.Errorf("check import status for %s: %w", path, err)
		}

		if storedHash == hash {
			slog.Info("package file unchanged, skipping", "path", path)
			continue
		}
		if storedHash != "" {
			slog.Info("package file changed since last import, re-importing", "path", path)
		}

		pkgs, err := parsePackages(path, data)
		if err != nil {
			return err
		}

		for _, pi := range pkgs {
			id, err := db.SavePackage(pi.ToPackage())
			if err != nil {
				return fmt.Errorf("save package from %s: %w", path, err)
			}
			slog.Info("imported package", "path", path, "id", id, "name", pi.PackageName, "questions", len(pi.Questions))
		}

		if err := db.SetImportedFileHash(path, hash); err != nil {
			return fmt.Errorf("record import for %s: %w", path, err)
		}
	}

	return nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
