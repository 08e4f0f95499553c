// README: Shared identifier type for customers, services, vehicles, and contractors.
package types

type ID string
