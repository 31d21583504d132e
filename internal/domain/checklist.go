package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ChecklistStatus enumerates checklist lifecycle states.
type ChecklistStatus string

const (
	ChecklistStatusInProgress ChecklistStatus = "IN_PROGRESS"
	ChecklistStatusCompleted  ChecklistStatus = "COMPLETED"
)

// ChecklistItemStatus enumerates item states.
type ChecklistItemStatus string

const (
	ItemStatusPending   ChecklistItemStatus = "PENDING"
	ItemStatusCompleted ChecklistItemStatus = "COMPLETED"
	ItemStatusSkipped   ChecklistItemStatus = "SKIPPED"
)

// ChecklistType distinguishes requirement sets per applicant kind.
type ChecklistType string

const (
	ChecklistTypeIndividual ChecklistType = "INDIVIDUAL"
	ChecklistTypeCorporate  ChecklistType = "CORPORATE"
)

// ItemTemplate is a requirement definition supplied by the configuration
// collaborator at creation time. Code is used as a human label only;
// uniqueness is not enforced here.
type ItemTemplate struct {
	Code        string
	Name        string
	Description string
	Category    string
	Required    bool
	SortOrder   int
}

// ChecklistItem tracks one discrete requirement.
type ChecklistItem struct {
	ID              string
	Code            string
	Name            string
	Description     string
	Category        string
	Required        bool
	SortOrder       int
	Status          ChecklistItemStatus
	CompletedByID   *string
	CompletedByName *string
	CompletedAt     *time.Time
	Notes           string
	SkipReason      string
}

// Checklist owns the set of requirements for one case. It is a peer of
// the WorkItem for the same case, with an independent lifecycle.
type Checklist struct {
	ID          string
	OwnerRef    string
	Type        ChecklistType
	Status      ChecklistStatus
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	items  []ChecklistItem
	events []Event
}

// NewChecklist builds one item per template, all pending, ordered by sort
// order. A checklist with no required items completes immediately.
func NewChecklist(ownerRef string, checklistType ChecklistType, templates []ItemTemplate) *Checklist {
	now := time.Now()

	items := make([]ChecklistItem, 0, len(templates))
	for _, tpl := range templates {
		items = append(items, ChecklistItem{
			ID:          uuid.NewString(),
			Code:        tpl.Code,
			Name:        tpl.Name,
			Description: tpl.Description,
			Category:    tpl.Category,
			Required:    tpl.Required,
			SortOrder:   tpl.SortOrder,
			Status:      ItemStatusPending,
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].SortOrder < items[j].SortOrder
	})

	c := &Checklist{
		ID:        uuid.NewString(),
		OwnerRef:  ownerRef,
		Type:      checklistType,
		Status:    ChecklistStatusInProgress,
		CreatedAt: now,
		UpdatedAt: now,
		items:     items,
	}
	c.events = append(c.events, newEvent(EventChecklistCreated, c.ID, "", "", now, ChecklistCreatedPayload{
		OwnerRef:  ownerRef,
		Type:      checklistType,
		ItemCount: len(items),
	}))

	c.checkCompletion(now)
	return c
}

// CompleteItem marks an item done. Re-completing a completed item is a
// no-op that preserves the original completion record.
func (c *Checklist) CompleteItem(itemID, byID, byName, notes string) error {
	item := c.findItem(itemID)
	if item == nil {
		return stateErr("complete item", "item %s not found", itemID)
	}
	if item.Status == ItemStatusCompleted {
		return nil
	}
	now := time.Now()

	item.Status = ItemStatusCompleted
	item.CompletedByID = &byID
	item.CompletedByName = &byName
	item.CompletedAt = &now
	if notes != "" {
		item.Notes = notes
	}
	item.SkipReason = ""
	c.UpdatedAt = now

	c.events = append(c.events, newEvent(EventChecklistItemCompleted, c.ID, byID, byName, now, ChecklistItemPayload{
		ItemID: item.ID,
		Code:   item.Code,
	}))

	c.checkCompletion(now)
	return nil
}

// SkipItem marks an optional item as skipped. Required items can never be
// skipped.
func (c *Checklist) SkipItem(itemID, byID, byName, reason string) error {
	item := c.findItem(itemID)
	if item == nil {
		return stateErr("skip item", "item %s not found", itemID)
	}
	if item.Required {
		return stateErr("skip item", "required item %s cannot be skipped", item.Code)
	}
	if item.Status == ItemStatusCompleted {
		return stateErr("skip item", "item %s is already completed", item.Code)
	}
	now := time.Now()

	item.Status = ItemStatusSkipped
	item.SkipReason = reason
	c.UpdatedAt = now

	c.events = append(c.events, newEvent(EventChecklistItemSkipped, c.ID, byID, byName, now, ChecklistItemPayload{
		ItemID: item.ID,
		Code:   item.Code,
		Reason: reason,
	}))

	c.checkCompletion(now)
	return nil
}

// ResetItem returns an item to pending and clears its completion record.
// Resetting a single item can un-complete the whole checklist.
func (c *Checklist) ResetItem(itemID, byID, byName, reason string) error {
	item := c.findItem(itemID)
	if item == nil {
		return stateErr("reset item", "item %s not found", itemID)
	}
	now := time.Now()

	item.Status = ItemStatusPending
	item.CompletedByID = nil
	item.CompletedByName = nil
	item.CompletedAt = nil
	item.Notes = ""
	item.SkipReason = resetMarker(byName, reason)
	c.UpdatedAt = now

	if c.Status == ChecklistStatusCompleted {
		c.Status = ChecklistStatusInProgress
		c.CompletedAt = nil
	}

	c.events = append(c.events, newEvent(EventChecklistItemReset, c.ID, byID, byName, now, ChecklistItemPayload{
		ItemID: item.ID,
		Code:   item.Code,
		Reason: reason,
	}))
	return nil
}

// CompletionPercentage is completed items over all items. Zero when the
// checklist has no items.
func (c *Checklist) CompletionPercentage() float64 {
	if len(c.items) == 0 {
		return 0
	}
	return float64(c.countCompleted(false)) / float64(len(c.items)) * 100
}

// RequiredCompletionPercentage is completed required items over required
// items. 100 when there are no required items.
func (c *Checklist) RequiredCompletionPercentage() float64 {
	required := 0
	for i := range c.items {
		if c.items[i].Required {
			required++
		}
	}
	if required == 0 {
		return 100
	}
	return float64(c.countCompleted(true)) / float64(required) * 100
}

// TotalScore counts completed items; skipped and pending items score
// zero.
func (c *Checklist) TotalScore() int {
	return c.countCompleted(false)
}

// IsCompleted reports whether every required item is completed.
func (c *Checklist) IsCompleted() bool {
	return c.Status == ChecklistStatusCompleted
}

// Items returns the item list as a copy; the backing slice is never
// exposed.
func (c *Checklist) Items() []ChecklistItem {
	out := make([]ChecklistItem, len(c.items))
	copy(out, c.items)
	return out
}

// PendingEvents returns the buffered domain events without clearing them.
func (c *Checklist) PendingEvents() []Event {
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// DrainEvents takes and clears the buffered domain events.
func (c *Checklist) DrainEvents() []Event {
	out := c.events
	c.events = nil
	return out
}

// Restore rehydrates the item list from storage.
func (c *Checklist) Restore(items []ChecklistItem) {
	c.items = items
	c.events = nil
}

// checkCompletion runs after any item state change. It completes the
// checklist once every required item is completed; re-running while
// already completed is a no-op.
func (c *Checklist) checkCompletion(now time.Time) {
	if c.Status == ChecklistStatusCompleted {
		return
	}
	for i := range c.items {
		if c.items[i].Required && c.items[i].Status != ItemStatusCompleted {
			return
		}
	}
	c.Status = ChecklistStatusCompleted
	c.CompletedAt = &now
	c.UpdatedAt = now
	c.events = append(c.events, newEvent(EventChecklistCompleted, c.ID, "", "", now, ChecklistCompletedPayload{
		OwnerRef:    c.OwnerRef,
		CompletedAt: now,
	}))
}

func (c *Checklist) findItem(itemID string) *ChecklistItem {
	for i := range c.items {
		if c.items[i].ID == itemID {
			return &c.items[i]
		}
	}
	return nil
}

func (c *Checklist) countCompleted(requiredOnly bool) int {
	count := 0
	for i := range c.items {
		if requiredOnly && !c.items[i].Required {
			continue
		}
		if c.items[i].Status == ItemStatusCompleted {
			count++
		}
	}
	return count
}

func resetMarker(byName, reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return fmt.Sprintf("reset by %s", byName)
	}
	return fmt.Sprintf("reset by %s: %s", byName, reason)
}
