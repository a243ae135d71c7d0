package auth

import "thoughtstream/internal/models"

// AuthorizeOwner decides whether the authenticated principal may mutate a
// resource recorded as owned by resourceOwnerID. Allow iff the IDs are equal
// and non-zero; every other combination is denied with NotOwner. This is a
// pure decision function so it can be tested without a data store.
func AuthorizeOwner(resourceOwnerID, principalID uint) error {
	if resourceOwnerID == 0 || principalID == 0 || resourceOwnerID != principalID {
		return models.NewNotOwnerError()
	}
	return nil
}
