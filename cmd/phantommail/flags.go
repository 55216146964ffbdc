package main

import (
	"github.com/spf13/pflag"
)

// bindFlag makes a flag the top-priority source for key. Binding only
// fails for a nil flag, which is a programming error.
func bindFlag(f *pflag.Flag, key string) {
	if err := v.BindPFlag(key, f); err != nil {
		panic(err)
	}
}
