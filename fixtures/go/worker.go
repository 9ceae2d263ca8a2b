package fixtures

import (
	"context"
	"fmt"
	str "strings"
)

type Worker struct {
	queue []string
}

func (w *Worker) Run(ctx context.Context) error {
	//$ Announce the start
	logStart()
	//$ [is there anything queued?]
	if len(w.queue) == 0 {
		//$ Nothing to do
		return nil
	}
	for _, item := range w.queue {
		//$1 Handle one item
		err := helper(ctx, item)
		if err != nil {
			return err
		}
	}
	//$ Trim the queue
	w.queue = trimAll(w.queue) //$
	return nil
}

func helper(ctx context.Context, item string) error {
	//$ Print the item
	fmt.Println(str.TrimSpace(item))
	return ctx.Err()
}

func trimAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, str.TrimSpace(item))
	}
	return out
}

func logStart() {
	fmt.Println("start")
}
