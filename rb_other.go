//go:build !linux

package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

func runAttach(context.Context, *cobra.Command, string) error {
	return errors.New("attach requires Linux ring buffer support")
}
