// Cosine-basis image zoom
package main

import (
	"context"
	"os"
	"os/signal"

	"cosine-zoom/internal/cli"
	iio "cosine-zoom/internal/io"
	"cosine-zoom/internal/opencv"
)

func main() {
	iio.RegisterCodec(opencv.NewCodec())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := cli.Execute(ctx, cli.NewApp(), os.Args[1:])
	stop()
	os.Exit(code)
}
