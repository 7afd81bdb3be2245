package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/goal-board/internal/core"
	"github.com/valter-silva-au/goal-board/pkg/models"
	"gopkg.in/yaml.v3"
)

var (
	editExport bool
	editFile   string
)

var editCmd = &cobra.Command{
	Use:   "edit [project]",
	Short: "Export a project as YAML or replace it from an edited file",
	Long: `Round-trip a project through YAML for bulk review and editing.

  goals edit --export > astrology.yaml
  $EDITOR astrology.yaml
  goals edit --file astrology.yaml

--file replaces the whole project with the file's content. Task ids are
renumbered in file order. Use "-" to read from stdin. A project key that does
not exist yet adds a new project.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireStore(); err != nil {
			return err
		}
		key := Store.CurrentKey()
		if len(args) == 1 {
			key = models.ProjectKey(args[0])
		}

		switch {
		case editExport && editFile != "":
			return fmt.Errorf("--export and --file are mutually exclusive")
		case editExport:
			p, err := Store.Project(key)
			if err != nil {
				return err
			}
			return exportProject(cmd.OutOrStdout(), p)
		case editFile != "":
			p, err := readProjectFile(editFile, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if err := Store.ReplaceProject(key, p); err != nil {
				return fmt.Errorf("replacing project %s: %w", key, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Replaced %s with %d task(s) from %s\n", key, len(p.Tasks), editFile)
			return nil
		default:
			return fmt.Errorf("nothing to do: pass --export or --file")
		}
	},
}

func exportProject(out io.Writer, p models.Project) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encoding project: %w", err)
	}
	return enc.Close()
}

func readProjectFile(path string, stdin io.Reader) (models.Project, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return models.Project{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return decodeProject(data)
}

func decodeProject(data []byte) (models.Project, error) {
	var p models.Project
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		if err == io.EOF {
			return models.Project{}, fmt.Errorf("parsing project: empty document")
		}
		return models.Project{}, fmt.Errorf("parsing project: %w", err)
	}
	core.Renumber(p.Tasks)
	return p, nil
}

func init() {
	editCmd.Flags().BoolVar(&editExport, "export", false, "Write the project as YAML to stdout")
	editCmd.Flags().StringVarP(&editFile, "file", "f", "", "Replace the project from a YAML file (- for stdin)")
	rootCmd.AddCommand(editCmd)
}
