// Package all links every storage backend into the binary. Importing it
// for side effects registers the backends with the factory:
//
//	import _ "warehouse/internal/storage/all"
package all

import (
	_ "warehouse/internal/storage/mssql"
	_ "warehouse/internal/storage/mysql"
	_ "warehouse/internal/storage/postgres"
	_ "warehouse/internal/storage/sqlite"
)
