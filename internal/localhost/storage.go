package localhost

import (
	"context"

	"github.com/roach88/rewards/internal/host"
	"github.com/roach88/rewards/internal/model"
)

func (h *Host) loadBlob(name string, cb host.BlobCallback) {
	h.read("load_"+name, func(ctx context.Context) func() {
		blob, err := h.blobs.LoadBlob(ctx, name)
		result := resultOf(err)
		if err != nil && result != model.ResultNotFound {
			h.log.Error("load blob failed", "name", name, "error", err)
		}
		return func() { cb(result, blob) }
	})
}

func (h *Host) saveBlob(name, blob string, cb host.ResultCallback) {
	h.write("save_"+name, func(ctx context.Context) func() {
		err := h.blobs.SaveBlob(ctx, name, blob)
		if err != nil {
			h.log.Error("save blob failed", "name", name, "error", err)
		}
		if cb == nil {
			return nil
		}
		return func() { cb(resultOf(err)) }
	})
}

func (h *Host) LoadLedgerState(cb host.BlobCallback) { h.loadBlob(host.BlobLedgerState, cb) }

func (h *Host) SaveLedgerState(blob string, cb host.ResultCallback) {
	h.saveBlob(host.BlobLedgerState, blob, cb)
}

func (h *Host) LoadPublisherState(cb host.BlobCallback) { h.loadBlob(host.BlobPublisherState, cb) }

func (h *Host) SavePublisherState(blob string, cb host.ResultCallback) {
	h.saveBlob(host.BlobPublisherState, blob, cb)
}

func (h *Host) LoadPublisherList(cb host.BlobCallback) { h.loadBlob(host.BlobPublisherList, cb) }

func (h *Host) SavePublisherList(blob string, cb host.ResultCallback) {
	h.saveBlob(host.BlobPublisherList, blob, cb)
}

func (h *Host) SavePublisherInfo(info model.PublisherInfo, cb func(model.Result, model.PublisherInfo)) {
	h.write("save_publisher_info", func(ctx context.Context) func() {
		err := h.records.SavePublisher(ctx, info)
		if err != nil {
			h.log.Error("save publisher failed", "publisher_id", info.ID, "error", err)
		}
		if cb == nil {
			return nil
		}
		return func() { cb(resultOf(err), info) }
	})
}

func (h *Host) LoadPublisherInfo(filter model.PublisherFilter, cb func(model.Result, model.PublisherInfo)) {
	h.read("load_publisher_info", func(ctx context.Context) func() {
		info, err := h.records.LoadPublisher(ctx, filter)
		return func() { cb(resultOf(err), info) }
	})
}

func (h *Host) LoadPublisherInfoList(start, limit uint32, filter model.PublisherFilter, cb func([]model.PublisherInfo, uint32)) {
	h.read("load_publisher_info_list", func(ctx context.Context) func() {
		list, next, err := h.records.ListPublishers(ctx, start, limit, filter)
		if err != nil {
			h.log.Error("list publishers failed", "error", err)
		}
		return func() { cb(list, next) }
	})
}

func (h *Host) LoadMediaPublisherInfo(mediaKey string, cb func(model.Result, model.PublisherInfo)) {
	h.read("load_media_publisher_info", func(ctx context.Context) func() {
		info, err := h.records.LoadMediaPublisher(ctx, mediaKey)
		return func() { cb(resultOf(err), info) }
	})
}

func (h *Host) SaveMediaPublisherInfo(mediaKey, publisherID string) {
	h.write("save_media_publisher_info", func(ctx context.Context) func() {
		if err := h.records.SaveMediaPublisher(ctx, mediaKey, publisherID); err != nil {
			h.log.Error("save media publisher failed", "media_key", mediaKey, "error", err)
		}
		return nil
	})
}

func (h *Host) SaveContributionInfo(info model.ContributionInfo, cb host.ResultCallback) {
	h.write("save_contribution_info", func(ctx context.Context) func() {
		err := h.records.SaveContribution(ctx, info)
		if err != nil {
			h.log.Error("save contribution failed", "publisher_id", info.PublisherID, "error", err)
		}
		if cb == nil {
			return nil
		}
		return func() { cb(resultOf(err)) }
	})
}

func (h *Host) SaveRecurringDonation(d model.RecurringDonation, cb host.ResultCallback) {
	h.write("save_recurring_donation", func(ctx context.Context) func() {
		err := h.records.SaveRecurringDonation(ctx, d)
		if cb == nil {
			return nil
		}
		return func() { cb(resultOf(err)) }
	})
}

func (h *Host) RemoveRecurring(publisherID string, cb host.ResultCallback) {
	h.write("remove_recurring", func(ctx context.Context) func() {
		err := h.records.RemoveRecurringDonation(ctx, publisherID)
		if cb == nil {
			return nil
		}
		return func() { cb(resultOf(err)) }
	})
}

func (h *Host) LoadRecurringDonations(cb func([]model.RecurringDonation)) {
	h.read("load_recurring_donations", func(ctx context.Context) func() {
		list, err := h.records.ListRecurringDonations(ctx)
		if err != nil {
			h.log.Error("list recurring donations failed", "error", err)
		}
		return func() { cb(list) }
	})
}
