package cli

import "fmt"

type InitCmd struct{}

func (cmd *InitCmd) Run(ctx *Context) error {
	if err := ctx.Store.Init(); err != nil {
		return err
	}
	fmt.Printf("Initialized stride storage at %s\n", ctx.Store.GetConfigPath())
	return nil
}
