// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/midasctl/pkg/midas"
)

var paramsGroup string

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "List the controller parameters",
	Long: `List every parameter midasctl knows with its command code, access and
valid values. No connection is opened.

Groups: status, pressure, temperature, pump, purge, system`,
	Args: cobra.NoArgs,
	RunE: runParams,
}

func init() {
	rootCmd.AddCommand(paramsCmd)
	paramsCmd.Flags().StringVarP(&paramsGroup, "group", "g", "", "Only list one group")
}

func runParams(cmd *cobra.Command, args []string) error {
	params := midas.Catalog
	if paramsGroup != "" {
		params = midas.InGroup(midas.Group(paramsGroup))
		if len(params) == 0 {
			return fmt.Errorf("unknown group %q", paramsGroup)
		}
	}

	t := newTable("Name", "Code", "Access", "Values", "Unit", "Description")
	for _, p := range params {
		t.Row(p.Name, p.Code, p.Access.String(), p.Domain.String(), p.Unit, p.Description)
	}
	fmt.Fprintln(cmd.OutOrStdout(), t)
	return nil
}
