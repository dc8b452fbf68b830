package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dangdai/quizgen/internal/content"
	"github.com/dangdai/quizgen/internal/quiz"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.yaml>...",
	Short: "Load textbook chunks into the local corpus",
	Long: `Load textbook chunks from YAML files into the local database. Each
YAML document names a book and lesson and lists its chunks:

  book: 1
  lesson: 5
  content_type: textbook
  chunks:
    - section: Vocabulary
      exercise_type: vocabulary
      content: 書 shū book

Chunks with an existing id are replaced.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var chunks []quiz.Chunk
		for _, path := range args {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			loaded, err := content.LoadChunks(f)
			f.Close()
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			chunks = append(chunks, loaded...)
		}

		_, st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		repo := st.ChunkRepo()
		n, err := repo.Upsert(ctx, chunks)
		if err != nil {
			return fmt.Errorf("store chunks: %w", err)
		}
		total, err := repo.Count(ctx)
		if err != nil {
			return fmt.Errorf("count chunks: %w", err)
		}
		fmt.Printf("Loaded %d chunks from %d file(s); corpus now holds %d chunks.\n", n, len(args), total)
		return nil
	},
}
