package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/NethermindEth/classconv/adapters/core2sn"
	"github.com/NethermindEth/classconv/adapters/sn2core"
	"github.com/NethermindEth/classconv/core"
	"github.com/NethermindEth/classconv/encoder/registry"
	"github.com/NethermindEth/classconv/starknet"
	"github.com/NethermindEth/classconv/utils"
	"github.com/sourcegraph/conc/pool"
)

type Converter struct {
	config *Config
	log    utils.SimpleLogger
}

func NewConverter(config *Config, log utils.SimpleLogger) *Converter {
	return &Converter{
		config: config,
		log:    log,
	}
}

// Run converts every file and writes one line per converted file, in the
// order the files were given. A failing file does not stop the others; the
// returned error joins all failures.
func (c *Converter) Run(ctx context.Context, w io.Writer, files []string) error {
	outputs := make([][]byte, len(files))

	workerPool := pool.New().WithContext(ctx).WithMaxGoroutines(c.config.Concurrency)
	for i, file := range files {
		workerPool.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}

			c.log.Debugw("Converting class", "file", file)
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}

			out, err := c.Convert(data)
			if err != nil {
				c.log.Errorw("Failed to convert class", "file", file, "err", err)
				return fmt.Errorf("%s: %w", file, err)
			}
			outputs[i] = out
			return nil
		})
	}
	err := workerPool.Wait()

	for _, out := range outputs {
		if out == nil {
			continue
		}
		if _, wErr := fmt.Fprintf(w, "%s\n", out); wErr != nil {
			return errors.Join(err, wErr)
		}
	}
	return err
}

// Convert decodes a wire class, converts it to its internal form and encodes
// the result in the configured format.
func (c *Converter) Convert(data []byte) ([]byte, error) {
	var class starknet.ContractClass
	if err := json.Unmarshal(data, &class); err != nil {
		var sErr *starknet.Error
		if !errors.As(err, &sErr) {
			err = &starknet.Error{Kind: starknet.ErrMalformedJSON, Err: err}
		}
		return nil, err
	}

	internal, err := sn2core.AdaptContractClassLimit(class, c.config.MaxDecompressedSize)
	if err != nil {
		return nil, err
	}
	c.logClass(internal)

	switch c.config.Format {
	case formatCBOR:
		encoded, err := registry.MarshalClass(internal)
		if err != nil {
			return nil, err
		}
		return []byte(hex.EncodeToString(encoded)), nil
	default:
		wire, err := core2sn.AdaptClass(internal)
		if err != nil {
			return nil, err
		}
		return json.Marshal(wire)
	}
}

func (c *Converter) logClass(class core.Class) {
	sierra, ok := class.(*core.SierraClass)
	if !ok {
		c.log.Infow("Converted deprecated class")
		return
	}

	version, err := sierra.ParsedSierraVersion()
	if err != nil {
		c.log.Warnw("Sierra class with an unparsable compiler version", "version", sierra.SierraVersion(), "err", err)
		return
	}
	c.log.Infow("Converted Sierra class",
		"contractClassVersion", sierra.SemanticVersion,
		"sierraVersion", version.String(),
		"programLength", len(sierra.Program),
	)
}
