package main

import (
	"encoding/json"
	"fmt"
	"io"

	"dialert/internal/advice"
	"dialert/internal/intake"
	"dialert/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// recommendFlags are the raw flag texts; they go through the same
// validator as interactive input.
type recommendFlags struct {
	label        string
	hypertension string
	heartDisease string
	bmi          string
	glucose      string
	hba1c        string
	asJSON       bool
}

func newRecommendCmd() *cobra.Command {
	f := &recommendFlags{}
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Print recommendations for a known risk label, without running the model",
		Example: `  dialert recommend --label "High risk of Diabetes" --hypertension 1 \
    --heart-disease 0 --bmi 31.2 --glucose 160 --hba1c 6.8`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecommend(cmd.OutOrStdout(), f)
		},
	}

	cmd.Flags().StringVar(&f.label, "label", "", "Risk label as printed by the model")
	cmd.Flags().StringVar(&f.hypertension, "hypertension", "0", "Hypertension (0 or 1)")
	cmd.Flags().StringVar(&f.heartDisease, "heart-disease", "0", "Heart disease (0 or 1)")
	cmd.Flags().StringVar(&f.bmi, "bmi", "", "Body mass index")
	cmd.Flags().StringVar(&f.glucose, "glucose", "", "Blood glucose level")
	cmd.Flags().StringVar(&f.hba1c, "hba1c", "", "HbA1c level")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "Print recommendations as a JSON array")
	_ = cmd.MarkFlagRequired("label")
	_ = cmd.MarkFlagRequired("bmi")
	_ = cmd.MarkFlagRequired("glucose")
	_ = cmd.MarkFlagRequired("hba1c")
	return cmd
}

func runRecommend(w io.Writer, f *recommendFlags) error {
	values := make(map[string]intake.Value, 5)
	for _, in := range []struct {
		flag string
		spec intake.FieldSpec
		raw  string
	}{
		{"hypertension", intake.HypertensionField, f.hypertension},
		{"heart-disease", intake.HeartDiseaseField, f.heartDisease},
		{"bmi", intake.BMIField, f.bmi},
		{"glucose", intake.GlucoseField, f.glucose},
		{"hba1c", intake.HbA1cField, f.hba1c},
	} {
		v, err := intake.Normalize(in.spec.Kind, in.raw)
		if err != nil {
			return fmt.Errorf("--%s: %w", in.flag, err)
		}
		values[in.flag] = v
	}

	lines := advice.Recommend(f.label,
		values["hypertension"].Flag,
		values["heart-disease"].Flag,
		values["bmi"].Number,
		values["glucose"].Number,
		values["hba1c"].Number)

	logging.Get(logging.CategoryAdvice).Debug("recommendations derived",
		zap.String("label", f.label),
		zap.String("severity", string(advice.Classify(f.label))),
		zap.Int("count", len(lines)))

	if f.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(advice.Strip(lines))
	}
	_, err := io.WriteString(w, advice.Text(lines))
	return err
}
