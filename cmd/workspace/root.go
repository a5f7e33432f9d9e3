package workspace

import (
	"fmt"

	"github.com/ValentinKolb/mocker/api/common"
	cmdUtil "github.com/ValentinKolb/mocker/cmd/util"
	"github.com/spf13/cobra"
)

var InitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new workspace",
	Long: `Write the default configuration with one example store route (/users)
together with an empty store file. The extension of --config selects the format
of both files. Fails if the configuration file already exists.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("config")
		ws, err := common.CreateWorkspace(path)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Initialized workspace %s\n", ws.Path)
		for _, route := range ws.Config.Routes {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %v %s -> %s\n", route.Methods, route.Endpoint, route.Kind.Path)
		}
		return nil
	},
}

func init() {
	cmdUtil.AddConfigFlag(InitCmd)
}
