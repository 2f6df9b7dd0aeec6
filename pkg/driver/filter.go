package driver

// FilterFn decides whether a driver is included in a query result.
type FilterFn func(Driver) bool

// FilterDeviceType matches drivers of the given device type.
func FilterDeviceType(t DeviceType) FilterFn {
	return func(d Driver) bool {
		return d.Info().DeviceType == t
	}
}

// FilterLabel matches drivers with the given label.
func FilterLabel(label string) FilterFn {
	return func(d Driver) bool {
		return d.Info().Label == label
	}
}

// FilterID matches the driver with the given ID.
func FilterID(id string) FilterFn {
	return func(d Driver) bool {
		return d.ID() == id
	}
}

// FilterNot negates a filter.
func FilterNot(f FilterFn) FilterFn {
	return func(d Driver) bool {
		return !f(d)
	}
}

// FilterAnd returns a filter matching drivers that match every given filter.
func FilterAnd(filters ...FilterFn) FilterFn {
	return func(d Driver) bool {
		for _, f := range filters {
			if !f(d) {
				return false
			}
		}
		return true
	}
}
