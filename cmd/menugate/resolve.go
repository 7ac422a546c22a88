package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mchmarny/menugate/pkg/acl"
	"github.com/mchmarny/menugate/pkg/menu"
	"github.com/mchmarny/menugate/pkg/source"
)

func newResolveCmd() *cobra.Command {
	var (
		location string
		token    string
		roles    []string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the menu a role may see",
		Example: `  menugate resolve --source menu.yaml --role admin
  menugate resolve --source https://api.example.com/menus --token $TOKEN --role manager --role employee`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := source.New(source.Config{Location: location, Token: token})
			if err != nil {
				return err
			}

			m, err := src.Load(cmd.Context())
			if err != nil {
				return err
			}

			resolved, err := m.Resolve(roles...)
			if err != nil {
				return err
			}

			return write(cmd.OutOrStdout(), output, resolved)
		},
	}

	cmd.Flags().StringVar(&location, "source", "", "menu file path or http(s) URL")
	cmd.Flags().StringVar(&token, "token", "", "bearer token for a remote source")
	cmd.Flags().StringArrayVar(&roles, "role", nil, "role of the principal (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format: json or yaml")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("role")

	return cmd
}

func newValidateCmd() *cobra.Command {
	var (
		location string
		token    string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a menu for missing or duplicate keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := source.New(source.Config{Location: location, Token: token})
			if err != nil {
				return err
			}

			m, err := src.Load(cmd.Context())
			if err != nil {
				return err
			}

			cmd.Printf("ok: %d nodes\n", menu.Count(m.Items))
			return nil
		},
	}

	cmd.Flags().StringVar(&location, "source", "", "menu file path or http(s) URL")
	cmd.Flags().StringVar(&token, "token", "", "bearer token for a remote source")
	_ = cmd.MarkFlagRequired("source")

	return cmd
}

// aclView is what the acl command prints for a role.
type aclView struct {
	Role    string         `json:"role" yaml:"role"`
	Tree    []acl.TreeNode `json:"tree" yaml:"tree"`
	Checked []string       `json:"checked" yaml:"checked"`
}

func newACLCmd() *cobra.Command {
	var (
		file   string
		role   string
		output string
	)

	cmd := &cobra.Command{
		Use:   "acl",
		Short: "Print the permission tree and granted keys of a role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rp, err := findRole(file, role)
			if err != nil {
				return err
			}

			return write(cmd.OutOrStdout(), output, aclView{
				Role:    rp.Role,
				Tree:    acl.BuildTree(rp),
				Checked: acl.CheckedKeys(rp),
			})
		},
	}

	cmd.PersistentFlags().StringVar(&file, "file", "", "JSON or YAML list of role permissions")
	cmd.PersistentFlags().StringVar(&role, "role", "", "role to show")
	cmd.PersistentFlags().StringVarP(&output, "output", "o", "json", "output format: json or yaml")
	_ = cmd.MarkPersistentFlagRequired("file")
	_ = cmd.MarkPersistentFlagRequired("role")

	var checked []string
	apply := &cobra.Command{
		Use:   "apply",
		Short: "Print the mapping saved for a set of checked tree keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rp, err := findRole(file, role)
			if err != nil {
				return err
			}

			grants := acl.ApplyChecked(rp, checked)
			if grants == nil {
				grants = []acl.Grant{}
			}

			return write(cmd.OutOrStdout(), output, acl.Mapping{Role: rp.Role, MappedPermissions: grants})
		},
	}
	apply.Flags().StringArrayVar(&checked, "checked", nil, "checked tree key, e.g. users-read (repeatable)")

	var (
		resources []string
		actions   []string
		grant     []string
		revoke    []string
		disable   []string
	)
	mapping := &cobra.Command{
		Use:   "mapping",
		Short: "Edit the resource by action grid of a role and print the result",
		Long: `Starts from the role's current grants, adds any extra --resource rows and
--action columns, then applies --grant, --revoke and --disable in that order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rp, err := findRole(file, role)
			if err != nil {
				return err
			}

			m := acl.MatrixFor(rp, resources, actions)
			for _, v := range grant {
				r, a, err := splitCell(v)
				if err != nil {
					return err
				}
				m.ToggleAction(r, a, true)
			}
			for _, v := range revoke {
				r, a, err := splitCell(v)
				if err != nil {
					return err
				}
				m.ToggleAction(r, a, false)
			}
			for _, r := range disable {
				m.ToggleResource(r, false)
			}

			return write(cmd.OutOrStdout(), output, m.Mapping())
		},
	}
	mapping.Flags().StringArrayVar(&resources, "resource", nil, "extra resource row (repeatable)")
	mapping.Flags().StringArrayVar(&actions, "action", nil, "extra action column (repeatable)")
	mapping.Flags().StringArrayVar(&grant, "grant", nil, "resource:action to turn on (repeatable)")
	mapping.Flags().StringArrayVar(&revoke, "revoke", nil, "resource:action to turn off (repeatable)")
	mapping.Flags().StringArrayVar(&disable, "disable", nil, "resource row to disable (repeatable)")

	cmd.AddCommand(apply, mapping)

	return cmd
}

func findRole(path, role string) (*acl.RolePermissions, error) {
	list, err := readPermissions(path)
	if err != nil {
		return nil, err
	}

	rp, ok := acl.Find(list, role)
	if !ok {
		return nil, fmt.Errorf("no permissions for role %q", role)
	}
	return rp, nil
}

// splitCell parses "resource:action".
func splitCell(v string) (string, string, error) {
	r, a, ok := strings.Cut(v, ":")
	if !ok || r == "" || a == "" {
		return "", "", fmt.Errorf("invalid cell %q, want resource:action", v)
	}
	return r, a, nil
}

func readPermissions(path string) ([]acl.RolePermissions, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read permissions: %w", err)
	}

	var list []acl.RolePermissions
	if source.FormatFor(path) == source.YAML {
		err = yaml.Unmarshal(b, &list)
	} else {
		err = json.Unmarshal(b, &list)
	}
	if err != nil {
		return nil, fmt.Errorf("decode permissions: %w", err)
	}

	return list, nil
}

func write(w io.Writer, format string, v any) error {
	switch format {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
