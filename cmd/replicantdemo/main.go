// Command replicantdemo is a minimal smoke test recovering the library's
// original Rust crate's demo program: build a register, mutate it before
// and after binding it to a replicant, and print every action the bound
// register emits onto the wire.
package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cshekharsharma/go-crdt"
)

func main() {
	logger := zap.NewExample()
	defer logger.Sync()

	register := gocrdt.NewRegister("test")
	register.Set("hello")

	replicant := gocrdt.New[gocrdt.RegisterOp[string], gocrdt.RegisterState[string]](
		register, gocrdt.Actor(1), gocrdt.WithLogger(logger),
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for action := range replicant.Actions() {
			fmt.Printf("%+v\n", action)
		}
	}()

	register.Set("gamer")

	if err := replicant.Close(); err != nil {
		logger.Error("replicant shutdown", zap.Error(err))
	}
	<-done
}
