package logging

import "go.uber.org/zap"

// ZapSKU tags a log entry with the submitted SKU.
func ZapSKU(sku string) zap.Field { return zap.String("sku", sku) }

// ZapSubmission tags a log entry with the submission id.
func ZapSubmission(id string) zap.Field { return zap.String("submission_id", id) }
