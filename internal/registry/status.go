package registry

import "rackplan/internal/domain"

// SetFlag sets one migration readiness flag of a device. Flags are
// independent switches with no ordering between them. An unknown device is a
// silent no-op reporting false; an unknown flag returns domain.ErrUnknownFlag
// and changes nothing.
func (r *Registry) SetFlag(deviceID string, flag domain.Flag, value bool) (bool, error) {
	if _, err := domain.ParseFlag(string(flag)); err != nil {
		return false, err
	}
	d, ok := r.devices[deviceID]
	if !ok {
		return false, nil
	}
	if err := d.Status.Set(flag, value); err != nil {
		return false, err
	}
	d.UpdatedAt = r.now()
	return true, nil
}
