package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	domrec "github.com/kailas-cloud/docdedup/internal/domain/record"
	"github.com/kailas-cloud/docdedup/internal/usecase/dedup"
)

type checkCandidate struct {
	ID       string  `json:"id"`
	Filename string  `json:"filename"`
	Score    float64 `json:"score"`
}

type checkOutput struct {
	File        string           `json:"file"`
	Duplicate   bool             `json:"duplicate"`
	Threshold   float64          `json:"threshold"`
	SimilarTo   *checkCandidate  `json:"similarTo,omitempty"`
	Candidates  []checkCandidate `json:"candidates"`
	Fingerprint string           `json:"fingerprint,omitempty"`
	TextLength  int              `json:"textLength,omitempty"`
}

func checkCmd(cfgPath *string) *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "check <file.pdf>",
		Short: "Run the duplicate check for a PDF without storing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}

			raw, err := os.ReadFile(filepath.Clean(args[0]))
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			a, err := buildApp(cmd.Context(), cfg, zap.NewNop())
			if err != nil {
				return err
			}
			defer a.Close()

			meta := domrec.Metadata{Filename: filepath.Base(args[0]), SourceReference: source}
			dec, err := a.detector.CheckAndBuildRecord(cmd.Context(), raw, meta)
			if err != nil {
				return fmt.Errorf("check %s: %w", args[0], err)
			}
			return writeDecision(cmd.OutOrStdout(), meta.Filename, a.detector.Threshold(), &dec)
		},
	}
	cmd.Flags().StringVar(&source, "source", "cli", "source reference recorded with the check")
	return cmd
}

func writeDecision(w io.Writer, file string, threshold float64, dec *dedup.Decision) error {
	out := checkOutput{
		File:       file,
		Duplicate:  dec.IsDuplicate(),
		Threshold:  threshold,
		Candidates: make([]checkCandidate, 0, len(dec.Candidates)),
	}
	for i := range dec.Candidates {
		c := &dec.Candidates[i]
		out.Candidates = append(out.Candidates, checkCandidate{ID: c.CandidateID(), Filename: c.Filename(), Score: c.Score()})
	}
	if dec.Duplicate != nil {
		out.SimilarTo = &checkCandidate{
			ID:       dec.Duplicate.CandidateID(),
			Filename: dec.Duplicate.Filename(),
			Score:    dec.Duplicate.Score(),
		}
	}
	if dec.Pending != nil {
		out.Fingerprint = dec.Pending.Fingerprint
		out.TextLength = len(dec.Pending.Text)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("write decision: %w", err)
	}
	return nil
}
