package cli

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"notequiz/internal/app"
	"notequiz/internal/domain"
)

// materialFlags describe study material read from files.
type materialFlags struct {
	user   string
	title  string
	notes  string
	images []string
	count  int
}

func (f *materialFlags) bind(cmd *cobra.Command) {
	user := os.Getenv("USER")
	if user == "" {
		user = "cli"
	}
	cmd.Flags().StringVar(&f.user, "user", user, "display name to log in with")
	cmd.Flags().StringVar(&f.title, "title", "", "module title")
	cmd.Flags().StringVar(&f.notes, "notes", "", `text notes file ("-" reads stdin)`)
	cmd.Flags().StringArrayVar(&f.images, "image", nil, "image file of notes (repeatable)")
	cmd.Flags().IntVar(&f.count, "count", 0, "number of questions (0 uses generation.default_questions)")
}

func (f *materialFlags) empty() bool {
	return f.notes == "" && len(f.images) == 0
}

func (f *materialFlags) request(stdin io.Reader) (domain.GenerationRequest, error) {
	req := domain.GenerationRequest{Title: f.title, QuestionCount: f.count}

	if f.notes != "" {
		var (
			raw []byte
			err error
		)
		if f.notes == "-" {
			raw, err = io.ReadAll(stdin)
		} else {
			raw, err = os.ReadFile(f.notes)
		}
		if err != nil {
			return req, fmt.Errorf("read notes: %w", err)
		}
		req.Text = string(raw)
	}

	for _, path := range f.images {
		img, err := readImage(path)
		if err != nil {
			return req, err
		}
		req.Images = append(req.Images, img)
	}
	return req, nil
}

func readImage(path string) (domain.ImagePart, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.ImagePart{}, fmt.Errorf("read image: %w", err)
	}
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = http.DetectContentType(raw)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return domain.ImagePart{}, fmt.Errorf("read image %s: unsupported content type %s", path, mimeType)
	}
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return domain.ImagePart{
		Data:     base64.StdEncoding.EncodeToString(raw),
		MimeType: mimeType,
		Name:     filepath.Base(path),
	}, nil
}

// generateModule logs in as the flagged user and runs one generation.
func generateModule(ctx context.Context, service *app.Service, flags *materialFlags, stdin io.Reader) (domain.QuizModule, error) {
	req, err := flags.request(stdin)
	if err != nil {
		return domain.QuizModule{}, err
	}
	if _, err := service.Login(flags.user); err != nil {
		return domain.QuizModule{}, err
	}

	started := time.Now()
	module, err := service.Generate(ctx, req)
	if err != nil {
		slog.ErrorContext(ctx, "generate module failed", "error", err)
		return domain.QuizModule{}, err
	}
	slog.InfoContext(ctx, "generate: module created",
		"module_id", module.ID,
		"questions", len(module.Questions),
		"elapsed", time.Since(started).Round(time.Millisecond),
	)
	return module, nil
}

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	flags := &materialFlags{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a quiz module from notes and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.empty() {
				return fmt.Errorf("%w: --notes or --image is required", domain.ErrInvalidRequest)
			}
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			rt, err := newRuntime(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			module, err := generateModule(cmd.Context(), rt.service, flags, cmd.InOrStdin())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(module)
		},
	}
	flags.bind(cmd)
	return cmd
}
