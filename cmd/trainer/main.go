package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/k-telecom/pdf-parser/internal/extract"
)

// The trainer reads a labelled dataset, tunes per-rule pattern weights
// and writes the result as a weight table file the server loads at
// startup with --weights.
func main() {
	var (
		datasetPath  = flag.String("dataset", "", "path to labelled dataset (JSON array of {text, fields})")
		basePath     = flag.String("base", "", "existing weight table to continue training from")
		outputPath   = flag.String("output", "weights.json", "where to write the trained weight table")
		epochs       = flag.Int("epochs", 10, "training epochs")
		learningRate = flag.Float64("lr", extract.DefaultLearningRate, "weight adjustment step per example")
		verbose      = flag.Bool("verbose", false, "log per-epoch stats")
	)
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	if *datasetPath == "" {
		fmt.Fprintln(os.Stderr, "usage: trainer -dataset data.json [-base weights.json] [-output weights.json] [-epochs N]")
		os.Exit(2)
	}

	examples, err := loadDataset(*datasetPath)
	if err != nil {
		logger.Fatalf("Failed to load dataset: %v", err)
	}
	if len(examples) == 0 {
		logger.Fatal("Dataset contains no examples")
	}
	logger.Infof("Loaded %d training examples", len(examples))

	base := extract.NewWeightTable(extract.DefaultFields())
	if *basePath != "" {
		base, err = extract.LoadWeightTable(*basePath)
		if err != nil {
			logger.Fatalf("Failed to load base weight table: %v", err)
		}
		logger.Infof("Continuing from weight table version %d", base.Version)
	}

	trainer := extract.NewTrainer(
		extract.WithLearningRate(*learningRate),
		extract.WithTrainerLogger(logger),
	)

	trained, stats := trainer.Train(base, examples, *epochs)

	for _, es := range stats {
		logger.WithFields(logrus.Fields{
			"epoch":    es.Epoch,
			"loss":     fmt.Sprintf("%.4f", es.Loss),
			"accuracy": fmt.Sprintf("%.1f%%", es.Accuracy),
			"correct":  es.Correct,
			"total":    es.Total,
		}).Info("Epoch finished")
	}

	if err := trained.SaveFile(*outputPath); err != nil {
		logger.Fatalf("Failed to save weight table: %v", err)
	}

	final := stats[len(stats)-1]
	logger.Infof("Saved weight table version %d to %s (final accuracy %.1f%%)",
		trained.Version, *outputPath, final.Accuracy)
}

// loadDataset parses a JSON array of labelled examples.
func loadDataset(path string) ([]extract.Example, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var examples []extract.Example
	if err := json.Unmarshal(data, &examples); err != nil {
		return nil, fmt.Errorf("invalid dataset format: %w", err)
	}
	return examples, nil
}
