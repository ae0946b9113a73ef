package platform

import (
	lua "github.com/yuin/gopher-lua"
)

// InjectPlatformTable creates a read-only platform table and injects it
// into the Lua state as a global. This should be called before loading
// any user configuration code.
func InjectPlatformTable(L *lua.LState, info *Info) error {
	platformTable := L.NewTable()

	L.SetField(platformTable, "os", lua.LString(info.OS))
	L.SetField(platformTable, "arch", lua.LString(info.Arch))
	L.SetField(platformTable, "arch_raw", lua.LString(info.ArchRaw))

	L.SetField(platformTable, "is_linux", lua.LBool(info.IsLinux()))
	L.SetField(platformTable, "is_macos", lua.LBool(info.IsMacOS()))
	L.SetField(platformTable, "is_windows", lua.LBool(info.IsWindows()))

	// Linux distribution table (nil on non-Linux or when undetected)
	if info.Distro != "" {
		distroTable := L.NewTable()
		L.SetField(distroTable, "id", lua.LString(info.Distro))
		L.SetField(distroTable, "family", lua.LString(info.Family))
		L.SetField(distroTable, "version", lua.LString(info.Version))
		L.SetField(platformTable, "distro", distroTable)
	} else {
		L.SetField(platformTable, "distro", lua.LNil)
	}

	// Helper function: when(condition, value)
	// Returns value if condition is true, nil otherwise
	whenFunc := L.NewFunction(func(L *lua.LState) int {
		cond := L.CheckBool(1)
		value := L.Get(2)
		if cond {
			L.Push(value)
		} else {
			L.Push(lua.LNil)
		}
		return 1
	})
	L.SetField(platformTable, "when", whenFunc)

	L.SetGlobal("platform", makeReadOnly(L, platformTable))

	return nil
}

// makeReadOnly makes a Lua table read-only by creating a proxy table
// with a metatable. The proxy redirects reads to the original table but
// prevents all writes.
func makeReadOnly(L *lua.LState, table *lua.LTable) *lua.LTable {
	mt := L.NewTable()

	L.SetField(mt, "__index", table)

	L.SetField(mt, "__newindex", L.NewFunction(func(L *lua.LState) int {
		L.RaiseError("platform table is read-only and cannot be modified")
		return 0
	}))

	L.SetField(mt, "__metatable", lua.LString("protected"))

	proxy := L.NewTable()
	L.SetMetatable(proxy, mt)

	return proxy
}
