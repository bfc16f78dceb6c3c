package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docvoice/internal/parser"
	"github.com/dgallion1/docvoice/internal/pipeline"
	"github.com/dgallion1/docvoice/internal/preference"
	"github.com/dgallion1/docvoice/internal/synth"
)

var (
	convertBackend string
	convertOut     string
	convertUser    string
)

var convertCmd = &cobra.Command{
	Use:   "convert FILE",
	Short: "Convert a local document to MP3 files",
	Long: `Convert extracts the text of FILE, synthesizes it with the chosen
backend and writes one MP3 per chunk into the output directory.

If the backend runs out of quota the first part of the extracted text is
printed instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

var extractCmd = &cobra.Command{
	Use:   "extract FILE",
	Short: "Print the text extracted from a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

func init() {
	convertCmd.Flags().StringVarP(&convertBackend, "backend", "b", string(synth.DefaultID), "speech backend (direct, ai-enhanced, gtts, groq)")
	convertCmd.Flags().StringVarP(&convertOut, "out", "o", ".", "directory for the MP3 files")
	convertCmd.Flags().StringVar(&convertUser, "user", "cli", "user ID recorded on the run")
	rootCmd.AddCommand(convertCmd, extractCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	path := args[0]
	if !parser.IsSupported(path) {
		return fmt.Errorf("%s: %w", path, parser.ErrUnsupported)
	}
	backendID, ok := synth.ParseID(convertBackend)
	if !ok {
		return fmt.Errorf("%w: %q", pipeline.ErrUnknownBackend, convertBackend)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	if err := os.MkdirAll(convertOut, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	b := newBackends(cfg, log)
	defer b.Close()

	orch := pipeline.NewOrchestrator(cfg, b.registry, preference.NewStore(), nil, log)

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var written []string
	deliver := func(_ context.Context, out pipeline.Outcome) error {
		paths, err := copySegments(out.Segments, convertOut, stem)
		if err != nil {
			return err
		}
		written = paths
		return nil
	}

	out, err := orch.Convert(cmd.Context(), pipeline.Request{
		UserID:   convertUser,
		Filename: filepath.Base(path),
		Body:     f,
		Backend:  backendID,
	}, deliver)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch out.Kind {
	case pipeline.OutcomeDone:
		for _, p := range written {
			fmt.Fprintln(w, p)
		}
		return nil
	case pipeline.OutcomeQuotaExceeded:
		fmt.Fprintln(w, out.Fallback)
		return fmt.Errorf("%s quota exceeded", out.Backend)
	case pipeline.OutcomeEmptyText:
		return fmt.Errorf("no text could be extracted from %s", path)
	}
	if out.Err != nil {
		return fmt.Errorf("conversion failed: %w", out.Err)
	}
	return fmt.Errorf("conversion failed")
}

func runExtract(cmd *cobra.Command, args []string) error {
	text, err := parser.Extract(args[0])
	if err != nil {
		return err
	}
	_, err = io.WriteString(cmd.OutOrStdout(), text)
	return err
}

// copySegments copies every segment into dir as <stem>_part_NNN.mp3. On
// failure the files it already wrote are removed.
func copySegments(segs []pipeline.AudioSegment, dir, stem string) ([]string, error) {
	written := make([]string, 0, len(segs))
	for _, seg := range segs {
		dst := filepath.Join(dir, fmt.Sprintf("%s_part_%03d.mp3", stem, seg.Index))
		if err := copyFile(seg.Path, dst); err != nil {
			for _, p := range written {
				os.Remove(p)
			}
			return nil, err
		}
		written = append(written, dst)
	}
	return written, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("copy segment: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("copy segment: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("copy segment: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("copy segment: %w", err)
	}
	return nil
}
