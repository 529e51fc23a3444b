package migrate

import "github.com/sirupsen/logrus"

// processBatches runs fn over fixed-size slices of items. A failing batch
// aborts the remainder; batches already processed stay committed (there is no
// cross-batch transaction).
func processBatches[T any](items []T, size int, log *logrus.Logger, fn func(batch []T) error) error {
	for i := 0; i < len(items); i += size {
		end := min(i+size, len(items))
		log.WithFields(logrus.Fields{
			"batch": i/size + 1,
			"start": i,
			"end":   end,
			"total": len(items),
		}).Info("Processing batch")
		if err := fn(items[i:end]); err != nil {
			return err
		}
	}
	return nil
}
